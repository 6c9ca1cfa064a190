package mcpproto

import "encoding/json"

// SamplingMessage is a single message in a sampling conversation.
type SamplingMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// MarshalJSON encodes SamplingMessage through the Content wire union.
func (m SamplingMessage) MarshalJSON() ([]byte, error) {
	wire, err := MarshalContent([]Content{m.Content})
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

// UnmarshalJSON decodes SamplingMessage through the Content wire union.
func (m *SamplingMessage) UnmarshalJSON(data []byte) error {
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

// ModelHint names a model family a client may prefer when servicing a
// sampling request.
type ModelHint struct {
	Name string `json:"name,omitempty"`
}

// ModelPreferences lets a server hint at model selection tradeoffs
// without naming a specific model.
type ModelPreferences struct {
	Hints                []ModelHint `json:"hints,omitempty"`
	CostPriority         float64     `json:"costPriority,omitempty"`
	SpeedPriority        float64     `json:"speedPriority,omitempty"`
	IntelligencePriority float64     `json:"intelligencePriority,omitempty"`
}

// ToolChoice constrains how the client's model may use the tools offered
// alongside a CreateMessageParams, mirroring
// turbomcp-client/src/llm/routing.rs's tool-use routing.
type ToolChoice struct {
	// Mode is one of "auto", "none", "required", or "tool".
	Mode string `json:"mode"`
	// ToolName is set when Mode is "tool", naming the single tool the
	// model must call.
	ToolName string `json:"toolName,omitempty"`
}

// CreateMessageParams is sent server-to-client for sampling/createMessage.
// Tools/ToolChoice are a supplemented feature (not in the distilled core
// wire description) restoring the original's tool-use sampling routing.
type CreateMessageParams struct {
	Messages         []SamplingMessage `json:"messages"`
	ModelPreferences *ModelPreferences `json:"modelPreferences,omitempty"`
	SystemPrompt     string            `json:"systemPrompt,omitempty"`
	MaxTokens        int               `json:"maxTokens"`
	Tools            []Tool            `json:"tools,omitempty"`
	ToolChoice       *ToolChoice       `json:"toolChoice,omitempty"`
}

// CreateMessageResult is the sampling/createMessage response.
type CreateMessageResult struct {
	Role       string  `json:"role"`
	Content    Content `json:"content"`
	Model      string  `json:"model"`
	StopReason string  `json:"stopReason,omitempty"`
}

// MarshalJSON encodes CreateMessageResult through the Content wire union.
func (r CreateMessageResult) MarshalJSON() ([]byte, error) {
	wire, err := MarshalContent([]Content{r.Content})
	if err != nil {
		return nil, err
	}
	var single []json.RawMessage
	if err := json.Unmarshal(wire, &single); err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Role       string          `json:"role"`
		Content    json.RawMessage `json:"content"`
		Model      string          `json:"model"`
		StopReason string          `json:"stopReason,omitempty"`
	}{Role: r.Role, Content: single[0], Model: r.Model, StopReason: r.StopReason})
}

// UnmarshalJSON decodes CreateMessageResult through the Content wire
// union.
func (r *CreateMessageResult) UnmarshalJSON(data []byte) error {
	var wire struct {
		Role       string          `json:"role"`
		Content    json.RawMessage `json:"content"`
		Model      string          `json:"model"`
		StopReason string          `json:"stopReason,omitempty"`
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
	r.Role = wire.Role
	r.Model = wire.Model
	r.StopReason = wire.StopReason
	if len(contents) == 1 {
		r.Content = contents[0]
	}
	return nil
}
