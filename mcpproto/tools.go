package mcpproto

import "encoding/json"

// Tool describes a single callable tool, as advertised by tools/list.
type Tool struct {
	Name         string          `json:"name"`
	Title        string          `json:"title,omitempty"`
	Description  string          `json:"description,omitempty"`
	InputSchema  json.RawMessage `json:"inputSchema"`
	OutputSchema json.RawMessage `json:"outputSchema,omitempty"`
	Annotations  *ToolAnnotations `json:"annotations,omitempty"`
}

// ToolAnnotations give clients hints about a tool's behaviour.
type ToolAnnotations struct {
	Title           string `json:"title,omitempty"`
	ReadOnlyHint    bool   `json:"readOnlyHint,omitempty"`
	DestructiveHint bool   `json:"destructiveHint,omitempty"`
	IdempotentHint  bool   `json:"idempotentHint,omitempty"`
	OpenWorldHint   bool   `json:"openWorldHint,omitempty"`
}

// ListToolsParams requests a page of tools/list.
type ListToolsParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListToolsResult is the tools/list response.
type ListToolsResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// CallToolParams is sent for tools/call; Arguments is decoded by the
// tool's own handler, matching this module's json.RawMessage params
// style.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallToolResult is the tools/call response. StructuredContent carries
// the typed result in addition to the human-readable Content list,
// mirroring modelcontextprotocol-go-sdk's CallToolResult.
type CallToolResult struct {
	Content           []Content `json:"content"`
	StructuredContent any       `json:"structuredContent,omitempty"`
	IsError           bool      `json:"isError,omitempty"`
}

// MarshalJSON encodes CallToolResult, marshalling Content through the
// Content wire union.
func (r CallToolResult) MarshalJSON() ([]byte, error) {
	content, err := MarshalContent(r.Content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Content           json.RawMessage `json:"content"`
		StructuredContent any             `json:"structuredContent,omitempty"`
		IsError           bool            `json:"isError,omitempty"`
	}{Content: content, StructuredContent: r.StructuredContent, IsError: r.IsError})
}

// UnmarshalJSON decodes CallToolResult, restoring Content through the
// Content wire union.
func (r *CallToolResult) UnmarshalJSON(data []byte) error {
	var wire struct {
		Content           json.RawMessage `json:"content"`
		StructuredContent any             `json:"structuredContent,omitempty"`
		IsError           bool            `json:"isError,omitempty"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	content, err := UnmarshalContent(wire.Content)
	if err != nil {
		return err
	}
	r.Content = content
	r.StructuredContent = wire.StructuredContent
	r.IsError = wire.IsError
	return nil
}

// ToolListChangedParams is the notifications/tools/list_changed payload
// (currently empty, reserved for future metadata).
type ToolListChangedParams struct{}
