package middleware

import (
	"context"

	"github.com/viant/turbomcp/protocol"
)

// PolicyDecider decides whether identity may invoke method. It is the
// pluggable seam an external policy engine (e.g. Cedar) attaches
// through; this package ships only AllowAll and a static allow-list.
type PolicyDecider interface {
	Allow(ctx context.Context, identity *Identity, method string) bool
}

// AllowAllDecider permits every request. It is the default when no
// authorization policy is configured.
type AllowAllDecider struct{}

// Allow implements PolicyDecider.
func (AllowAllDecider) Allow(context.Context, *Identity, string) bool { return true }

// StaticAllowListDecider permits a request only if the identity's
// Subject is present in the configured set of allowed methods for that
// subject.
type StaticAllowListDecider struct {
	// Allowed maps subject -> set of permitted methods. A subject with a
	// "*" entry is permitted every method.
	Allowed map[string]map[string]bool
}

// Allow implements PolicyDecider.
func (d StaticAllowListDecider) Allow(_ context.Context, identity *Identity, method string) bool {
	if identity == nil {
		return false
	}
	methods, ok := d.Allowed[identity.Subject]
	if !ok {
		return false
	}
	return methods["*"] || methods[method]
}

// Authorization consults a PolicyDecider once identity has been
// established by Authentication.
type Authorization struct {
	Decider PolicyDecider
}

// NewAuthorization creates an Authorization stage backed by decider, or
// by AllowAllDecider when decider is nil.
func NewAuthorization(decider PolicyDecider) *Authorization {
	if decider == nil {
		decider = AllowAllDecider{}
	}
	return &Authorization{Decider: decider}
}

// Stage returns the middleware.Stage this Authorization implements.
func (a *Authorization) Stage() Stage {
	return func(ctx context.Context, request *protocol.Request, next Next) (*protocol.Response, error) {
		identity, _ := IdentityFromContext(ctx)
		if !a.Decider.Allow(ctx, identity, request.Method) {
			return errorResponse(request, protocol.NewError(protocol.KindAuthorization, "not authorized for method "+request.Method, nil)), nil
		}
		return next(ctx, request)
	}
}
