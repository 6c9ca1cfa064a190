package mcpproto

import "encoding/json"

// ElicitParams is sent server-to-client for elicitation/create, asking
// the user to supply structured input matching Schema.
type ElicitParams struct {
	Message string          `json:"message"`
	Schema  json.RawMessage `json:"requestedSchema"`
}

// ElicitResult is the elicitation/create response. Action is one of
// "accept", "decline", or "cancel"; Content is populated only on accept.
type ElicitResult struct {
	Action  string          `json:"action"`
	Content json.RawMessage `json:"content,omitempty"`
}

// Root is a single filesystem or URI root the client exposes to the
// server.
type Root struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitempty"`
}

// ListRootsParams is sent server-to-client for roots/list (no fields).
type ListRootsParams struct{}

// ListRootsResult is the roots/list response.
type ListRootsResult struct {
	Roots []Root `json:"roots"`
}

// RootsListChangedParams is the notifications/roots/list_changed payload.
type RootsListChangedParams struct{}
