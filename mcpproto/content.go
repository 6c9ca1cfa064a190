// Package mcpproto holds the MCP-level request/result types that ride on
// top of the bare JSON-RPC envelope in package protocol: tools, resources,
// prompts, sampling, elicitation, roots, and capability negotiation.
// Grounded on modelcontextprotocol-go-sdk's mcp/protocol.go and
// mcp/content.go, re-expressed in this module's wire style. Params and
// results are plain structs decoded from the protocol.Request/Response
// json.RawMessage payload, rather than carrying their own framing.
package mcpproto

import (
	"encoding/json"
	"fmt"
)

// Content is the union of content block types a tool result, prompt
// message, or sampling message can carry.
type Content interface {
	contentType() string
}

// TextContent is a plain text content block.
type TextContent struct {
	Text        string       `json:"text"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

func (*TextContent) contentType() string { return "text" }

// ImageContent is a base64-encoded image content block.
type ImageContent struct {
	Data        string       `json:"data"`
	MimeType    string       `json:"mimeType"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

func (*ImageContent) contentType() string { return "image" }

// AudioContent is a base64-encoded audio content block.
type AudioContent struct {
	Data        string       `json:"data"`
	MimeType    string       `json:"mimeType"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

func (*AudioContent) contentType() string { return "audio" }

// ResourceLink references a resource by URI without embedding its
// contents.
type ResourceLink struct {
	URI         string       `json:"uri"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	MimeType    string       `json:"mimeType,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

func (*ResourceLink) contentType() string { return "resource_link" }

// EmbeddedResource carries a resource's contents inline.
type EmbeddedResource struct {
	Resource    ResourceContents `json:"resource"`
	Annotations *Annotations     `json:"annotations,omitempty"`
}

func (*EmbeddedResource) contentType() string { return "resource" }

// ResourceContents is the text-or-blob payload of a resource, matching
// the "one of text/blob" shape the protocol uses for resource reads and
// embedded resources.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// Annotations are client hints about how to use a content block.
type Annotations struct {
	Audience     []string `json:"audience,omitempty"`
	Priority     float64  `json:"priority,omitempty"`
	LastModified string   `json:"lastModified,omitempty"`
}

// wireContent is the on-the-wire shape every Content variant marshals
// to/from, distinguished by Type.
type wireContent struct {
	Type        string           `json:"type"`
	Text        string           `json:"text,omitempty"`
	Data        string           `json:"data,omitempty"`
	MimeType    string           `json:"mimeType,omitempty"`
	URI         string           `json:"uri,omitempty"`
	Name        string           `json:"name,omitempty"`
	Description string           `json:"description,omitempty"`
	Resource    *ResourceContents `json:"resource,omitempty"`
	Annotations *Annotations     `json:"annotations,omitempty"`
}

// MarshalContent encodes a []Content slice to its wire representation.
func MarshalContent(items []Content) ([]byte, error) {
	wires := make([]wireContent, len(items))
	for i, item := range items {
		w, err := toWire(item)
		if err != nil {
			return nil, err
		}
		wires[i] = w
	}
	return json.Marshal(wires)
}

func toWire(item Content) (wireContent, error) {
	switch c := item.(type) {
	case *TextContent:
		return wireContent{Type: "text", Text: c.Text, Annotations: c.Annotations}, nil
	case *ImageContent:
		return wireContent{Type: "image", Data: c.Data, MimeType: c.MimeType, Annotations: c.Annotations}, nil
	case *AudioContent:
		return wireContent{Type: "audio", Data: c.Data, MimeType: c.MimeType, Annotations: c.Annotations}, nil
	case *ResourceLink:
		return wireContent{Type: "resource_link", URI: c.URI, Name: c.Name, Description: c.Description, MimeType: c.MimeType, Annotations: c.Annotations}, nil
	case *EmbeddedResource:
		res := c.Resource
		return wireContent{Type: "resource", Resource: &res, Annotations: c.Annotations}, nil
	default:
		return wireContent{}, fmt.Errorf("mcpproto: unknown content type %T", item)
	}
}

// UnmarshalContent decodes a wire []Content payload into concrete Content
// values.
func UnmarshalContent(data json.RawMessage) ([]Content, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var wires []wireContent
	if err := json.Unmarshal(data, &wires); err != nil {
		return nil, err
	}
	out := make([]Content, len(wires))
	for i, w := range wires {
		c, err := fromWire(w)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func fromWire(w wireContent) (Content, error) {
	switch w.Type {
	case "text":
		return &TextContent{Text: w.Text, Annotations: w.Annotations}, nil
	case "image":
		return &ImageContent{Data: w.Data, MimeType: w.MimeType, Annotations: w.Annotations}, nil
	case "audio":
		return &AudioContent{Data: w.Data, MimeType: w.MimeType, Annotations: w.Annotations}, nil
	case "resource_link":
		return &ResourceLink{URI: w.URI, Name: w.Name, Description: w.Description, MimeType: w.MimeType, Annotations: w.Annotations}, nil
	case "resource":
		if w.Resource == nil {
			return nil, fmt.Errorf("mcpproto: resource content missing resource field")
		}
		return &EmbeddedResource{Resource: *w.Resource, Annotations: w.Annotations}, nil
	default:
		return nil, fmt.Errorf("mcpproto: unknown content type %q", w.Type)
	}
}
