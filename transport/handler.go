package transport

import (
	"context"

	"github.com/viant/turbomcp/protocol"
)

// Handler is implemented by whatever owns the peer-facing side of a
// dispatcher: it is invoked once per inbound request/notification, and is
// responsible for writing exactly one Response into the supplied pointer
// for every request it serves.
type Handler interface {
	Serve(ctx context.Context, request *protocol.Request, response *protocol.Response)
	OnNotification(ctx context.Context, notification *protocol.Notification)
}

// NewHandler constructs a Handler bound to a specific Transport, so the
// handler can issue server-initiated requests (sampling, elicitation,
// roots) back over the same connection it was invoked on.
type NewHandler func(ctx context.Context, transport Transport) Handler
