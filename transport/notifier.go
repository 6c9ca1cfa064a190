package transport

import (
	"context"

	"github.com/viant/turbomcp/protocol"
)

// Notifier sends one-way JSON-RPC notifications and exposes the channel
// inbound notifications (from the peer) are delivered on. A Transport's
// Notification channel is read by exactly one dispatcher goroutine; the
// channel is closed when the transport is closed.
type Notifier interface {
	Notify(ctx context.Context, notification *protocol.Notification) error
	Notification() chan *protocol.Notification
}
