// Package transport defines the port every wire transport implements: a
// single Send/Notify surface the dispatcher and rpcclient program against,
// independent of whether bytes travel over stdio, a TCP/Unix stream, or
// HTTP. Concrete transports live in the sibling transport/stdio,
// transport/stream, and transport/httpstream packages; transport/resilience
// wraps any of them without changing this contract.
package transport

import (
	"context"

	"github.com/viant/turbomcp/protocol"
)

// Transport is the port a dispatcher or rpcclient sends outbound traffic
// through. Send blocks for a matching response (or ctx/timeout); Notify
// fires and forgets. Exactly one goroutine per Transport instance may ever
// read from the channel returned by Notification/inbound delivery; see
// dispatcher for the single-consumer invariant this is built around.
type Transport interface {
	Notifier

	// Send issues request and blocks until the correlated response
	// arrives, ctx is cancelled, or the transport is closed.
	Send(ctx context.Context, request *protocol.Request) (*protocol.Response, error)

	// Close releases any resources (sockets, goroutines) held by the
	// transport. Send/Notify return an error after Close.
	Close() error
}

// Dialer describes a transport constructed against a peer address/command
// rather than an already-open connection. The stdio and stream Dialers
// take an additional NewHandler argument and do not implement it.
type Dialer interface {
	Dial(ctx context.Context) (Transport, error)
}
