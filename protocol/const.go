package protocol

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Reserved server-range codes TurboMCP assigns to the kinds that have no
// standard JSON-RPC code of their own. The range -32000..-32099 is reserved
// by JSON-RPC convention for implementation-defined server errors.
const (
	CodeTransport         = -32000
	CodeTimeout           = -32001
	CodeRateLimited       = -32002
	CodeAuthentication    = -32003
	CodeAuthorization     = -32004
	CodeResourceNotFound  = -32005
	CodeUnavailable       = -32006
	CodeServerOverloaded  = -32007
)

// Kind is the error taxonomy TurboMCP uses internally. It is independent of
// the JSON-RPC code (several Kinds share CodeInternalError, since
// tool/resource/prompt lookup failures are reported as ordinary internal
// errors rather than a distinct wire code) and drives retry decisions
// uniformly across the dispatcher, rpcclient, and the resilience decorator.
type Kind string

const (
	KindParse            Kind = "parse"
	KindInvalidRequest   Kind = "invalid_request"
	KindMethodNotFound   Kind = "method_not_found"
	KindInvalidParams    Kind = "invalid_params"
	KindInternal         Kind = "internal"
	KindTransport        Kind = "transport"
	KindTimeout          Kind = "timeout"
	KindRateLimited      Kind = "rate_limited"
	KindAuthentication   Kind = "authentication"
	KindAuthorization    Kind = "authorization"
	KindResourceNotFound Kind = "resource_not_found"
	KindUnavailable      Kind = "unavailable"
	KindServerOverloaded Kind = "server_overloaded"
)

// Retryable reports whether a Kind is safe for the resilience decorator to
// retry automatically. Retryable kinds are RateLimited, Unavailable,
// ServerOverloaded, and connection-class Transport failures: the request
// was refused or delivery never completed, so
// resending is safe. Timeout is deliberately excluded: Transport.Send
// covers the full request/response round trip, so a Timeout means the
// request was already delivered and only its reply was slow; retrying it
// would re-issue a possibly non-idempotent request. Authentication/
// authorization denials, parse errors, method-not-found, and
// invalid-params are never retried automatically either.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimited, KindUnavailable, KindTransport, KindServerOverloaded:
		return true
	default:
		return false
	}
}

// Code returns the JSON-RPC wire code this Kind maps to.
func (k Kind) Code() int {
	switch k {
	case KindParse:
		return CodeParseError
	case KindInvalidRequest:
		return CodeInvalidRequest
	case KindMethodNotFound:
		return CodeMethodNotFound
	case KindInvalidParams:
		return CodeInvalidParams
	case KindTransport:
		return CodeTransport
	case KindTimeout:
		return CodeTimeout
	case KindRateLimited:
		return CodeRateLimited
	case KindAuthentication:
		return CodeAuthentication
	case KindAuthorization:
		return CodeAuthorization
	case KindResourceNotFound:
		// Deliberately NOT a distinct code: tool/resource/prompt lookup
		// failures surface as InternalError on the wire for
		// interoperability with older clients that don't know a
		// dedicated not-found code.
		return CodeInternalError
	case KindUnavailable:
		return CodeUnavailable
	case KindServerOverloaded:
		return CodeServerOverloaded
	default:
		return CodeInternalError
	}
}
