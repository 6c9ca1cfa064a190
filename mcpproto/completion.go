package mcpproto

import (
	"encoding/json"
	"fmt"
)

// CompleteArgument identifies the argument a completion/complete request is
// requesting values for, and the partial value typed so far.
type CompleteArgument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CompleteContext carries variables already resolved elsewhere in a prompt
// or URI template, so a completion provider can narrow its suggestions.
type CompleteContext struct {
	Arguments map[string]string `json:"arguments,omitempty"`
}

// CompleteReference identifies what is being completed: a prompt argument
// (Type "ref/prompt", Name set) or a resource template variable (Type
// "ref/resource", URI set). Exactly one of Name/URI is meaningful, chosen
// by Type.
type CompleteReference struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	URI  string `json:"uri,omitempty"`
}

// MarshalJSON enforces the ref/prompt | ref/resource discriminated union
// before encoding.
func (r CompleteReference) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case "ref/prompt":
		if r.URI != "" {
			return nil, fmt.Errorf("mcpproto: reference %q must not set uri", r.Type)
		}
	case "ref/resource":
		if r.Name != "" {
			return nil, fmt.Errorf("mcpproto: reference %q must not set name", r.Type)
		}
	default:
		return nil, fmt.Errorf("mcpproto: unrecognized completion reference type %q", r.Type)
	}
	type wire CompleteReference
	return json.Marshal(wire(r))
}

// UnmarshalJSON enforces the ref/prompt | ref/resource discriminated union
// after decoding.
func (r *CompleteReference) UnmarshalJSON(data []byte) error {
	type wire CompleteReference
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case "ref/prompt":
		if w.URI != "" {
			return fmt.Errorf("mcpproto: reference %q must not set uri", w.Type)
		}
	case "ref/resource":
		if w.Name != "" {
			return fmt.Errorf("mcpproto: reference %q must not set name", w.Type)
		}
	default:
		return fmt.Errorf("mcpproto: unrecognized completion reference type %q", w.Type)
	}
	*r = CompleteReference(w)
	return nil
}

// CompleteParams is sent for completion/complete.
type CompleteParams struct {
	Ref      *CompleteReference `json:"ref"`
	Argument CompleteArgument   `json:"argument"`
	Context  *CompleteContext   `json:"context,omitempty"`
}

// CompletionValues is the completion/complete response payload.
type CompletionValues struct {
	Values  []string `json:"values"`
	Total   int      `json:"total,omitempty"`
	HasMore bool     `json:"hasMore,omitempty"`
}

// CompleteResult is the completion/complete response.
type CompleteResult struct {
	Completion CompletionValues `json:"completion"`
}

// SetLevelParams is sent for logging/setLevel.
type SetLevelParams struct {
	Level string `json:"level"`
}
