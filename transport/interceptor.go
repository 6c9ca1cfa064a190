package transport

import (
	"context"

	"github.com/viant/turbomcp/protocol"
)

// Interceptor lets a caller observe (and optionally chain off) the response
// to a specific outbound method, without every caller re-implementing
// request/response plumbing. Used by rpcclient for flows like
// initialize -> notifications/initialized that must fire automatically.
type Interceptor interface {
	// Intercept runs after a response is received for a request it was
	// registered against (including error responses). A non-nil returned
	// request is sent as a follow-up; a nil request/nil error ends the
	// chain.
	Intercept(ctx context.Context, request *protocol.Request, response *protocol.Response) (*protocol.Request, error)
}
