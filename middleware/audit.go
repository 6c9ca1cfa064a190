package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/turbomcp/protocol"
)

// Audit logs one structured entry per request: method, identity, outcome,
// duration, and request id, the field set
// turbomcp-server/src/middleware/audit.rs captured.
type Audit struct {
	Logger protocol.Logger
}

// NewAudit creates an Audit stage writing through logger.
func NewAudit(logger protocol.Logger) *Audit {
	return &Audit{Logger: logger}
}

// Stage returns the middleware.Stage this Audit implements.
func (a *Audit) Stage() Stage {
	return func(ctx context.Context, request *protocol.Request, next Next) (*protocol.Response, error) {
		start := time.Now()
		response, err := next(ctx, request)
		duration := time.Since(start)

		identity := "anonymous"
		if id, ok := IdentityFromContext(ctx); ok {
			identity = id.Subject
		}
		outcome := "ok"
		if err != nil {
			outcome = "transport_error"
		} else if response != nil && response.Error != nil {
			outcome = fmt.Sprintf("error:%d", response.Error.Code)
		}
		a.Logger.Errorf("audit method=%s identity=%s outcome=%s duration=%s requestID=%v",
			request.Method, identity, outcome, duration, request.Id)
		return response, err
	}
}
