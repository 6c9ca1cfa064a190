package mcpproto

// ClientCapabilities is sent in initialize, advertising what the client
// supports.
type ClientCapabilities struct {
	Roots        *RootCapabilities        `json:"roots,omitempty"`
	Sampling     *SamplingCapabilities    `json:"sampling,omitempty"`
	Elicitation  *ElicitationCapabilities `json:"elicitation,omitempty"`
	Experimental map[string]any           `json:"experimental,omitempty"`
}

// RootCapabilities describes a client's support for roots.
type RootCapabilities struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// SamplingCapabilities describes a client's support for sampling.
type SamplingCapabilities struct{}

// ElicitationCapabilities describes a client's support for elicitation.
type ElicitationCapabilities struct{}

// ServerCapabilities is returned in the initialize response, advertising
// what the server supports.
type ServerCapabilities struct {
	Tools       *ToolCapabilities       `json:"tools,omitempty"`
	Resources   *ResourceCapabilities   `json:"resources,omitempty"`
	Prompts     *PromptCapabilities     `json:"prompts,omitempty"`
	Logging     *LoggingCapabilities    `json:"logging,omitempty"`
	Completions *CompletionCapabilities `json:"completions,omitempty"`
}

// ToolCapabilities describes a server's support for tools.
type ToolCapabilities struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ResourceCapabilities describes a server's support for resources.
type ResourceCapabilities struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

// PromptCapabilities describes a server's support for prompts.
type PromptCapabilities struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// LoggingCapabilities describes a server's support for the logging
// notification.
type LoggingCapabilities struct{}

// CompletionCapabilities describes a server's support for argument
// autocompletion via completion/complete.
type CompletionCapabilities struct{}

// Implementation identifies a client or server by name and version.
type Implementation struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Version string `json:"version"`
}

// InitializeParams is sent client-to-server for initialize.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
}

// InitializeResult is the initialize response.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// ProgressParams is the notifications/progress payload, reporting
// incremental progress for a long-running request identified by
// ProgressToken.
type ProgressParams struct {
	ProgressToken any     `json:"progressToken"`
	Progress      float64 `json:"progress"`
	Total         float64 `json:"total,omitempty"`
	Message       string  `json:"message,omitempty"`
}

// PingParams is sent for the "ping" liveness check (no fields).
type PingParams struct{}
