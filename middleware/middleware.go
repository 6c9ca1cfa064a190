// Package middleware implements the ordered request pipeline a server
// runs inbound requests through before they reach a tool/resource/prompt
// handler: security headers, timeout, schema validation, authentication,
// authorization, rate limiting, and audit logging.
package middleware

import (
	"context"

	"github.com/viant/turbomcp/protocol"
)

// Identity is the authenticated caller attached to a request's context
// after the Authentication stage runs.
type Identity struct {
	Subject string
	Claims  map[string]any
}

type identityKey struct{}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the Identity attached to ctx, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok
}

// Next is called by a Stage to continue the pipeline. The final Next in
// a chain invokes the handler the pipeline was built to protect.
type Next func(ctx context.Context, request *protocol.Request) (*protocol.Response, error)

// Stage is one link in the middleware pipeline.
type Stage func(ctx context.Context, request *protocol.Request, next Next) (*protocol.Response, error)

// Chain composes stages into a single Next that runs them in order,
// terminating in handler.
func Chain(handler Next, stages ...Stage) Next {
	next := handler
	for i := len(stages) - 1; i >= 0; i-- {
		stage := stages[i]
		prev := next
		next = func(ctx context.Context, request *protocol.Request) (*protocol.Response, error) {
			return stage(ctx, request, prev)
		}
	}
	return next
}
