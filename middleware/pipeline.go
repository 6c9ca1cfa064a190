package middleware

import (
	"context"

	"github.com/viant/turbomcp/protocol"
	"github.com/viant/turbomcp/transport"
)

// Pipeline wraps a transport.Handler with an ordered stage chain,
// re-exposing it as a transport.Handler so it can be registered anywhere
// a plain handler is expected (stdio, the Streamable HTTP listener).
// Notifications bypass the chain since a Stage only ever sees requests.
type Pipeline struct {
	inner transport.Handler
	next  Next
}

// NewPipeline builds a Pipeline running stages, in order, before every
// request reaches inner.
func NewPipeline(inner transport.Handler, stages ...Stage) *Pipeline {
	handler := func(ctx context.Context, request *protocol.Request) (*protocol.Response, error) {
		response := &protocol.Response{Jsonrpc: protocol.Version, Id: request.Id}
		inner.Serve(ctx, request, response)
		return response, nil
	}
	return &Pipeline{inner: inner, next: Chain(handler, stages...)}
}

// Serve implements transport.Handler.
func (p *Pipeline) Serve(ctx context.Context, request *protocol.Request, response *protocol.Response) {
	result, err := p.next(ctx, request)
	if err != nil {
		response.Jsonrpc = protocol.Version
		response.Id = request.Id
		response.Error = protocol.NewInternalError(err.Error(), nil)
		return
	}
	*response = *result
}

// OnNotification implements transport.Handler, passing straight through
// to the wrapped handler.
func (p *Pipeline) OnNotification(ctx context.Context, notification *protocol.Notification) {
	p.inner.OnNotification(ctx, notification)
}
