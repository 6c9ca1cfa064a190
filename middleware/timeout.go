package middleware

import (
	"context"
	"time"

	"github.com/viant/turbomcp/protocol"
)

// Timeout bounds how long a request may run before the pipeline returns
// a timeout error, independent of whatever deadline the caller's ctx
// already carries.
type Timeout struct {
	Duration time.Duration
}

// NewTimeout creates a Timeout stage.
func NewTimeout(d time.Duration) *Timeout {
	return &Timeout{Duration: d}
}

// Stage returns the middleware.Stage this Timeout implements.
func (t *Timeout) Stage() Stage {
	return func(ctx context.Context, request *protocol.Request, next Next) (*protocol.Response, error) {
		ctx, cancel := context.WithTimeout(ctx, t.Duration)
		defer cancel()

		type result struct {
			response *protocol.Response
			err      error
		}
		done := make(chan result, 1)
		go func() {
			resp, err := next(ctx, request)
			done <- result{resp, err}
		}()

		select {
		case r := <-done:
			return r.response, r.err
		case <-ctx.Done():
			return errorResponse(request, protocol.NewTimeoutError("request exceeded timeout")), nil
		}
	}
}
