package middleware

import (
	"context"

	"github.com/viant/turbomcp/protocol"
)

// OriginChecker validates a request's declared origin (attached to ctx
// by the transport, e.g. the Origin header on an HTTP connection),
// guarding against DNS-rebinding style attacks on local servers.
type OriginChecker func(ctx context.Context) bool

// SecurityHeaders is the first stage in the pipeline: it rejects
// requests from a disallowed origin before any other stage runs.
type SecurityHeaders struct {
	CheckOrigin OriginChecker
}

// NewSecurityHeaders creates a SecurityHeaders stage. A nil checkOrigin
// allows every origin.
func NewSecurityHeaders(checkOrigin OriginChecker) *SecurityHeaders {
	return &SecurityHeaders{CheckOrigin: checkOrigin}
}

// Stage returns the middleware.Stage this SecurityHeaders implements.
func (s *SecurityHeaders) Stage() Stage {
	return func(ctx context.Context, request *protocol.Request, next Next) (*protocol.Response, error) {
		if s.CheckOrigin != nil && !s.CheckOrigin(ctx) {
			return errorResponse(request, protocol.NewInvalidRequest("origin not allowed", nil)), nil
		}
		return next(ctx, request)
	}
}
