package mcpproto

// Resource describes a single readable resource, as advertised by
// resources/list.
type Resource struct {
	URI         string       `json:"uri"`
	Name        string       `json:"name"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	MimeType    string       `json:"mimeType,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

// ResourceTemplate describes a parameterised family of resources matched
// by URI template, per RFC 6570 (see server.Registry's
// RegisterResourceTemplate and LookupResource for the matching rule).
type ResourceTemplate struct {
	URITemplate string       `json:"uriTemplate"`
	Name        string       `json:"name"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	MimeType    string       `json:"mimeType,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

// ListResourcesParams requests a page of resources/list.
type ListResourcesParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListResourcesResult is the resources/list response.
type ListResourcesResult struct {
	Resources  []Resource `json:"resources"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// ListResourceTemplatesParams requests a page of resources/templates/list.
type ListResourceTemplatesParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListResourceTemplatesResult is the resources/templates/list response.
type ListResourceTemplatesResult struct {
	ResourceTemplates []ResourceTemplate `json:"resourceTemplates"`
	NextCursor        string             `json:"nextCursor,omitempty"`
}

// ReadResourceParams is sent for resources/read.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// ReadResourceResult is the resources/read response.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

// SubscribeParams is sent for resources/subscribe.
type SubscribeParams struct {
	URI string `json:"uri"`
}

// UnsubscribeParams is sent for resources/unsubscribe.
type UnsubscribeParams struct {
	URI string `json:"uri"`
}

// ResourceUpdatedParams is the notifications/resources/updated payload.
type ResourceUpdatedParams struct {
	URI string `json:"uri"`
}
