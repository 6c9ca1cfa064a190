package middleware

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/viant/turbomcp/protocol"
)

// SchemaLookup resolves the input schema for a request's method, e.g. a
// tool's declared inputSchema. A nil return means no validation applies.
type SchemaLookup func(method string) *jsonschema.Schema

// Validation resolves each request's declared schema once per distinct
// schema (cached by pointer identity) and validates params against it,
// mirroring modelcontextprotocol-go-sdk's unmarshalSchema/tool.go
// resolve-once-at-registration pattern.
type Validation struct {
	Lookup SchemaLookup

	mu       sync.Mutex
	resolved map[*jsonschema.Schema]*jsonschema.Resolved
}

// NewValidation creates a Validation stage backed by lookup.
func NewValidation(lookup SchemaLookup) *Validation {
	return &Validation{Lookup: lookup, resolved: make(map[*jsonschema.Schema]*jsonschema.Resolved)}
}

// Stage returns the middleware.Stage this Validation implements.
func (v *Validation) Stage() Stage {
	return func(ctx context.Context, request *protocol.Request, next Next) (*protocol.Response, error) {
		schema := v.Lookup(request.Method)
		if schema == nil {
			return next(ctx, request)
		}
		resolved, err := v.resolve(schema)
		if err != nil {
			return errorResponse(request, protocol.NewInternalError(err.Error(), nil)), nil
		}
		var args any
		if len(request.Params) > 0 {
			if err := json.Unmarshal(request.Params, &args); err != nil {
				return errorResponse(request, protocol.NewInvalidParams(err.Error(), nil)), nil
			}
		}
		if err := resolved.Validate(args); err != nil {
			return errorResponse(request, protocol.NewInvalidParams(err.Error(), nil)), nil
		}
		return next(ctx, request)
	}
}

func (v *Validation) resolve(schema *jsonschema.Schema) (*jsonschema.Resolved, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if resolved, ok := v.resolved[schema]; ok {
		return resolved, nil
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{ValidateDefaults: true})
	if err != nil {
		return nil, err
	}
	v.resolved[schema] = resolved
	return resolved, nil
}

func errorResponse(request *protocol.Request, err *protocol.Error) *protocol.Response {
	return &protocol.Response{Jsonrpc: protocol.Version, Id: request.Id, Error: err}
}
