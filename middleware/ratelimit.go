package middleware

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/viant/turbomcp/protocol"
)

// KeyFunc extracts the key a RateLimit stage tracks a separate token
// bucket per (e.g. identity subject, source IP).
type KeyFunc func(ctx context.Context, request *protocol.Request) string

// IdentityKey rate-limits per authenticated identity, falling back to
// "anonymous" when no Identity is attached to ctx.
func IdentityKey(ctx context.Context, _ *protocol.Request) string {
	if identity, ok := IdentityFromContext(ctx); ok {
		return identity.Subject
	}
	return "anonymous"
}

// RateLimit enforces a per-key token-bucket limit, approximating the
// GCRA behaviour of a production API gateway with golang.org/x/time/rate
// (a dependency of modelcontextprotocol-go-sdk for its own rate-limiting
// example).
type RateLimit struct {
	Key   KeyFunc
	Limit rate.Limit
	Burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimit creates a RateLimit stage allowing limit requests/sec per
// key, with burst capacity.
func NewRateLimit(key KeyFunc, limit rate.Limit, burst int) *RateLimit {
	return &RateLimit{Key: key, Limit: limit, Burst: burst, limiters: make(map[string]*rate.Limiter)}
}

// Stage returns the middleware.Stage this RateLimit implements.
func (r *RateLimit) Stage() Stage {
	return func(ctx context.Context, request *protocol.Request, next Next) (*protocol.Response, error) {
		limiter := r.limiterFor(r.Key(ctx, request))
		if !limiter.Allow() {
			return errorResponse(request, protocol.NewError(protocol.KindRateLimited, "rate limit exceeded", nil)), nil
		}
		return next(ctx, request)
	}
}

func (r *RateLimit) limiterFor(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	limiter, ok := r.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(r.Limit, r.Burst)
		r.limiters[key] = limiter
	}
	return limiter
}
