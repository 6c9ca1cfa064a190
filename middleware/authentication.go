package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/viant/turbomcp/authstore"
	"github.com/viant/turbomcp/protocol"
)

// BearerHeader names the header (or its HTTP-transport-supplied
// equivalent, attached to ctx by the caller) carrying "Bearer <token>".
const BearerHeader = "Authorization"

// grantScheme prefixes a bearer value that names a stored grant rather
// than a JWT, letting a resumed session skip re-verifying a signature
// on every request.
const grantScheme = "grant:"

// TokenExtractor pulls the raw bearer token out of ctx, however the
// transport attached it (HTTP header, stdio out-of-band handshake,
// etc).
type TokenExtractor func(ctx context.Context) (string, bool)

// Authentication decodes a bearer JWT into an Identity attached to the
// request's context. It validates signature and expiry only; issuing
// tokens (an OAuth2/DPoP flow) is out of scope here, the external issuer
// that minted the token is trusted.
type Authentication struct {
	Extract    TokenExtractor
	Keyfunc    jwt.Keyfunc
	ParserOpts []jwt.ParserOption
	// Required, if false, lets requests without a token through
	// unauthenticated (IdentityFromContext returns ok=false downstream).
	Required bool

	// Grants resolves "Bearer grant:<id>" tokens against a persisted
	// session grant instead of verifying a JWT signature. Nil disables
	// grant-based resumption; only JWTs are then accepted.
	Grants authstore.Store
}

// NewAuthentication creates an Authentication stage.
func NewAuthentication(extract TokenExtractor, keyfunc jwt.Keyfunc, required bool) *Authentication {
	return &Authentication{Extract: extract, Keyfunc: keyfunc, Required: required}
}

// Stage returns the middleware.Stage this Authentication implements.
func (a *Authentication) Stage() Stage {
	return func(ctx context.Context, request *protocol.Request, next Next) (*protocol.Response, error) {
		raw, ok := a.Extract(ctx)
		if !ok || raw == "" {
			if a.Required {
				return errorResponse(request, unauthorizedError("missing bearer token")), nil
			}
			return next(ctx, request)
		}
		raw = strings.TrimPrefix(raw, "Bearer ")

		if a.Grants != nil && strings.HasPrefix(raw, grantScheme) {
			id := strings.TrimPrefix(raw, grantScheme)
			grant, err := a.Grants.Get(ctx, id)
			if err != nil {
				return errorResponse(request, unauthorizedError("invalid session grant")), nil
			}
			_ = a.Grants.Touch(ctx, id, time.Now())
			claims := jwt.MapClaims{}
			for _, scope := range grant.Scopes {
				claims[scope] = true
			}
			ctx = WithIdentity(ctx, &Identity{Subject: grant.Subject, Claims: claims})
			return next(ctx, request)
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, a.Keyfunc, a.ParserOpts...)
		if err != nil || !token.Valid {
			return errorResponse(request, unauthorizedError("invalid bearer token")), nil
		}

		subject, _ := claims.GetSubject()
		ctx = WithIdentity(ctx, &Identity{Subject: subject, Claims: claims})
		return next(ctx, request)
	}
}

func unauthorizedError(message string) *protocol.Error {
	return protocol.NewError(protocol.KindAuthentication, message, nil)
}
