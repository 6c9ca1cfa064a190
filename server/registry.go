// Package server implements the server side of a TurboMCP connection:
// tool/resource/prompt registries, and the server-to-client dispatcher
// for sampling, elicitation, roots, and ping. Grounded on
// modelcontextprotocol-go-sdk's mcp/tool.go and mcp/session.go for
// registry shape, adapted to this module's json.RawMessage wire style.
package server

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/yosida95/uritemplate/v3"

	"github.com/viant/turbomcp/internal/collection"
	"github.com/viant/turbomcp/mcpproto"
)

// ToolHandler implements a single registered tool.
type ToolHandler func(ctx context.Context, params *mcpproto.CallToolParams) (*mcpproto.CallToolResult, error)

// ResourceHandler implements a single registered resource or resource
// template. params.URI carries the concrete URI the client requested,
// even when matched through a template.
type ResourceHandler func(ctx context.Context, params *mcpproto.ReadResourceParams) (*mcpproto.ReadResourceResult, error)

// PromptHandler implements a single registered prompt.
type PromptHandler func(ctx context.Context, params *mcpproto.GetPromptParams) (*mcpproto.GetPromptResult, error)

// CompletionHandler answers a single completion/complete request, given
// the reference being completed (a prompt argument or resource template
// variable) and the argument's name and partial value.
type CompletionHandler func(ctx context.Context, params *mcpproto.CompleteParams) (*mcpproto.CompleteResult, error)

type registeredTool struct {
	descriptor mcpproto.Tool
	handler    ToolHandler
}

type registeredResource struct {
	descriptor mcpproto.Resource
	handler    ResourceHandler
}

type registeredPrompt struct {
	descriptor mcpproto.Prompt
	handler    PromptHandler
}

type registeredTemplate struct {
	descriptor    mcpproto.ResourceTemplate
	handler       ResourceHandler
	template      *uritemplate.Template
	matcher       *regexp.Regexp
	literalPrefix string
}

// Registry holds a server's tools, resources, resource templates, and
// prompts. Create one with NewRegistry; the zero value is not usable. All
// methods are safe for concurrent use.
type Registry struct {
	tools     *collection.SyncMap[string, registeredTool]
	resources *collection.SyncMap[string, registeredResource]
	prompts   *collection.SyncMap[string, registeredPrompt]

	templatesMu sync.RWMutex
	templates   []registeredTemplate

	completionMu sync.RWMutex
	completion   CompletionHandler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:     collection.NewSyncMap[string, registeredTool](),
		resources: collection.NewSyncMap[string, registeredResource](),
		prompts:   collection.NewSyncMap[string, registeredPrompt](),
	}
}

// RegisterCompletionProvider installs the handler that answers every
// completion/complete request this registry's server receives. Only one
// provider is supported; a later call replaces an earlier one, since a
// server either offers argument autocompletion across its prompts and
// resource templates or it doesn't.
func (r *Registry) RegisterCompletionProvider(handler CompletionHandler) {
	r.completionMu.Lock()
	defer r.completionMu.Unlock()
	r.completion = handler
}

// CompletionProvider returns the registered completion handler, if any.
func (r *Registry) CompletionProvider() (CompletionHandler, bool) {
	r.completionMu.RLock()
	defer r.completionMu.RUnlock()
	return r.completion, r.completion != nil
}

// RegisterTool adds or replaces a tool.
func (r *Registry) RegisterTool(descriptor mcpproto.Tool, handler ToolHandler) {
	r.tools.Set(descriptor.Name, registeredTool{descriptor: descriptor, handler: handler})
}

// RegisterResource adds or replaces a concrete (non-templated) resource.
func (r *Registry) RegisterResource(descriptor mcpproto.Resource, handler ResourceHandler) {
	r.resources.Set(descriptor.URI, registeredResource{descriptor: descriptor, handler: handler})
}

// RegisterPrompt adds or replaces a prompt.
func (r *Registry) RegisterPrompt(descriptor mcpproto.Prompt, handler PromptHandler) {
	r.prompts.Set(descriptor.Name, registeredPrompt{descriptor: descriptor, handler: handler})
}

// RegisterResourceTemplate adds a resource template, matched by longest
// literal-prefix preference against incoming URIs. Registration fails if
// the new template's literal prefix ties with an already-registered
// template's. The decision for the ambiguous-resource-template
// open question is to reject at registration time rather than guess at
// request time.
func (r *Registry) RegisterResourceTemplate(descriptor mcpproto.ResourceTemplate, handler ResourceHandler) error {
	tmpl, err := uritemplate.New(descriptor.URITemplate)
	if err != nil {
		return fmt.Errorf("server: parse resource template %q: %w", descriptor.URITemplate, err)
	}
	matcher, err := tmpl.Regexp()
	if err != nil {
		return fmt.Errorf("server: compile resource template %q: %w", descriptor.URITemplate, err)
	}
	prefix := literalPrefix(descriptor.URITemplate)

	r.templatesMu.Lock()
	defer r.templatesMu.Unlock()
	for _, existing := range r.templates {
		if existing.literalPrefix == prefix {
			return fmt.Errorf("server: resource template %q ties with %q on literal prefix %q",
				descriptor.URITemplate, existing.descriptor.URITemplate, prefix)
		}
	}
	r.templates = append(r.templates, registeredTemplate{
		descriptor:    descriptor,
		handler:       handler,
		template:      tmpl,
		matcher:       matcher,
		literalPrefix: prefix,
	})
	sort.Slice(r.templates, func(i, j int) bool {
		return len(r.templates[i].literalPrefix) > len(r.templates[j].literalPrefix)
	})
	return nil
}

// literalPrefix returns the portion of a URI template before its first
// expression ("{"), the basis for longest-prefix template preference.
func literalPrefix(raw string) string {
	if idx := strings.IndexByte(raw, '{'); idx >= 0 {
		return raw[:idx]
	}
	return raw
}

// LookupTool returns the handler registered for name.
func (r *Registry) LookupTool(name string) (ToolHandler, bool) {
	t, ok := r.tools.Get(name)
	if !ok {
		return nil, false
	}
	return t.handler, true
}

// LookupPrompt returns the handler registered for name.
func (r *Registry) LookupPrompt(name string) (PromptHandler, bool) {
	p, ok := r.prompts.Get(name)
	if !ok {
		return nil, false
	}
	return p.handler, true
}

// LookupResource returns the handler for a concrete resource URI, or
// falls back to the longest-literal-prefix-matching resource template.
func (r *Registry) LookupResource(uri string) (ResourceHandler, bool) {
	if res, ok := r.resources.Get(uri); ok {
		return res.handler, true
	}
	r.templatesMu.RLock()
	defer r.templatesMu.RUnlock()
	for _, t := range r.templates {
		if t.matcher.MatchString(uri) {
			return t.handler, true
		}
	}
	return nil, false
}

// ListTools returns every registered tool's descriptor.
func (r *Registry) ListTools() []mcpproto.Tool {
	var out []mcpproto.Tool
	r.tools.Range(func(_ string, t registeredTool) bool {
		out = append(out, t.descriptor)
		return true
	})
	return out
}

// ListResources returns every registered concrete resource's descriptor.
func (r *Registry) ListResources() []mcpproto.Resource {
	var out []mcpproto.Resource
	r.resources.Range(func(_ string, res registeredResource) bool {
		out = append(out, res.descriptor)
		return true
	})
	return out
}

// ListResourceTemplates returns every registered resource template's
// descriptor, ordered by longest literal prefix first.
func (r *Registry) ListResourceTemplates() []mcpproto.ResourceTemplate {
	r.templatesMu.RLock()
	defer r.templatesMu.RUnlock()
	out := make([]mcpproto.ResourceTemplate, len(r.templates))
	for i, t := range r.templates {
		out[i] = t.descriptor
	}
	return out
}

// ListPrompts returns every registered prompt's descriptor.
func (r *Registry) ListPrompts() []mcpproto.Prompt {
	var out []mcpproto.Prompt
	r.prompts.Range(func(_ string, p registeredPrompt) bool {
		out = append(out, p.descriptor)
		return true
	})
	return out
}
