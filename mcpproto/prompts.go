package mcpproto

import "encoding/json"

// Prompt describes a single prompt template, as advertised by
// prompts/list.
type Prompt struct {
	Name        string           `json:"name"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// PromptArgument describes one of a Prompt's arguments.
type PromptArgument struct {
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// ListPromptsParams requests a page of prompts/list.
type ListPromptsParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListPromptsResult is the prompts/list response.
type ListPromptsResult struct {
	Prompts    []Prompt `json:"prompts"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

// GetPromptParams is sent for prompts/get.
type GetPromptParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// PromptMessage is a single rendered message in a GetPromptResult.
type PromptMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// MarshalJSON encodes PromptMessage, marshalling Content through the
// Content wire union.
func (m PromptMessage) MarshalJSON() ([]byte, error) {
	var content Content = m.Content
	items := []Content{content}
	wire, err := MarshalContent(items)
	if err != nil {
		return nil, err
	}
	var single []json.RawMessage
	if err := json.Unmarshal(wire, &single); err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}{Role: m.Role, Content: single[0]})
}

// UnmarshalJSON decodes PromptMessage, restoring Content through the
// Content wire union.
func (m *PromptMessage) UnmarshalJSON(data []byte) error {
	var wire struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	wrapped, err := json.Marshal([]json.RawMessage{wire.Content})
	if err != nil {
		return err
	}
	contents, err := UnmarshalContent(wrapped)
	if err != nil {
		return err
	}
	m.Role = wire.Role
	if len(contents) == 1 {
		m.Content = contents[0]
	}
	return nil
}

// GetPromptResult is the prompts/get response.
type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}
