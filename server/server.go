package server

import (
	"context"
	"encoding/json"

	"github.com/viant/turbomcp/mcpproto"
	"github.com/viant/turbomcp/protocol"
	"github.com/viant/turbomcp/transport"
)

// Info identifies this server to a connecting client, and declares the
// capabilities it advertises during initialize.
type Info struct {
	Name         string
	Version      string
	Instructions string
}

// Server implements transport.Handler over a Registry: it decodes each
// inbound request's method, routes it to the matching registry lookup,
// and marshals the typed result (or error) back into the response the
// dispatcher is waiting to send.
type Server struct {
	Info       Info
	Registry   *Registry
	Dispatcher *Dispatcher

	// OnInitialized is called once the client sends
	// notifications/initialized, after a successful initialize exchange.
	OnInitialized func(ctx context.Context)
}

// New builds a Server bound to registry, issuing server-initiated
// requests over t.
func New(info Info, registry *Registry, t transport.Transport) *Server {
	return &Server{Info: info, Registry: registry, Dispatcher: NewDispatcher(t)}
}

// RegisterHandler adapts registry into the transport.NewHandler
// constructor every transport dials/accepts with, building one Server
// per connection so each gets its own Dispatcher bound to that
// connection's Transport.
func RegisterHandler(info Info, registry *Registry) transport.NewHandler {
	return func(ctx context.Context, t transport.Transport) transport.Handler {
		return New(info, registry, t)
	}
}

// Serve implements transport.Handler.
func (s *Server) Serve(ctx context.Context, request *protocol.Request, response *protocol.Response) {
	response.Jsonrpc = protocol.Version
	response.Id = request.Id

	result, err := s.dispatch(ctx, request)
	if err != nil {
		response.Error = asProtocolError(err)
		return
	}
	data, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		response.Error = protocol.NewInternalError(marshalErr.Error(), nil)
		return
	}
	response.Result = data
}

// OnNotification implements transport.Handler.
func (s *Server) OnNotification(ctx context.Context, notification *protocol.Notification) {
	if notification.Method == "notifications/initialized" && s.OnInitialized != nil {
		s.OnInitialized(ctx)
	}
}

func (s *Server) dispatch(ctx context.Context, request *protocol.Request) (any, error) {
	switch request.Method {
	case "initialize":
		return s.handleInitialize(request)
	case "ping":
		return struct{}{}, nil
	case "tools/list":
		return mcpproto.ListToolsResult{Tools: s.Registry.ListTools()}, nil
	case "tools/call":
		return s.handleCallTool(ctx, request)
	case "resources/list":
		return mcpproto.ListResourcesResult{Resources: s.Registry.ListResources()}, nil
	case "resources/templates/list":
		return mcpproto.ListResourceTemplatesResult{ResourceTemplates: s.Registry.ListResourceTemplates()}, nil
	case "resources/read":
		return s.handleReadResource(ctx, request)
	case "prompts/list":
		return mcpproto.ListPromptsResult{Prompts: s.Registry.ListPrompts()}, nil
	case "prompts/get":
		return s.handleGetPrompt(ctx, request)
	case "completion/complete":
		return s.handleComplete(ctx, request)
	case "logging/setLevel":
		return s.handleSetLevel(request)
	default:
		return nil, protocol.NewMethodNotFound(request.Method)
	}
}

func (s *Server) handleInitialize(request *protocol.Request) (*mcpproto.InitializeResult, error) {
	var params mcpproto.InitializeParams
	if len(request.Params) > 0 {
		if err := json.Unmarshal(request.Params, &params); err != nil {
			return nil, protocol.NewInvalidParams(err.Error(), nil)
		}
	}
	caps := mcpproto.ServerCapabilities{
		Tools:     &mcpproto.ToolCapabilities{},
		Resources: &mcpproto.ResourceCapabilities{},
		Prompts:   &mcpproto.PromptCapabilities{},
		Logging:   &mcpproto.LoggingCapabilities{},
	}
	if _, ok := s.Registry.CompletionProvider(); ok {
		caps.Completions = &mcpproto.CompletionCapabilities{}
	}
	return &mcpproto.InitializeResult{
		ProtocolVersion: params.ProtocolVersion,
		Capabilities:    caps,
		ServerInfo:      mcpproto.Implementation{Name: s.Info.Name, Version: s.Info.Version},
		Instructions:    s.Info.Instructions,
	}, nil
}

// handlerNotFoundError is returned by the three lookup-by-name dispatch
// paths below when the named tool/resource/prompt is missing. It maps to
// InternalError on the wire, not MethodNotFound or a dedicated not-found
// code, see asProtocolError.
type handlerNotFoundError struct {
	kind string
	name string
}

func (e *handlerNotFoundError) Error() string {
	return e.kind + " not found: " + e.name
}

func (s *Server) handleCallTool(ctx context.Context, request *protocol.Request) (*mcpproto.CallToolResult, error) {
	var params mcpproto.CallToolParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		return nil, protocol.NewInvalidParams(err.Error(), nil)
	}
	handler, ok := s.Registry.LookupTool(params.Name)
	if !ok {
		return nil, &handlerNotFoundError{kind: "tool", name: params.Name}
	}
	rc := &RequestContext{Transport: s.Dispatcher.Transport, ProgressToken: progressTokenOf(request)}
	return handler(WithRequestContext(ctx, rc), &params)
}

func (s *Server) handleReadResource(ctx context.Context, request *protocol.Request) (*mcpproto.ReadResourceResult, error) {
	var params mcpproto.ReadResourceParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		return nil, protocol.NewInvalidParams(err.Error(), nil)
	}
	handler, ok := s.Registry.LookupResource(params.URI)
	if !ok {
		return nil, &handlerNotFoundError{kind: "resource", name: params.URI}
	}
	rc := &RequestContext{Transport: s.Dispatcher.Transport, ProgressToken: progressTokenOf(request)}
	return handler(WithRequestContext(ctx, rc), &params)
}

func (s *Server) handleGetPrompt(ctx context.Context, request *protocol.Request) (*mcpproto.GetPromptResult, error) {
	var params mcpproto.GetPromptParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		return nil, protocol.NewInvalidParams(err.Error(), nil)
	}
	handler, ok := s.Registry.LookupPrompt(params.Name)
	if !ok {
		return nil, &handlerNotFoundError{kind: "prompt", name: params.Name}
	}
	rc := &RequestContext{Transport: s.Dispatcher.Transport, ProgressToken: progressTokenOf(request)}
	return handler(WithRequestContext(ctx, rc), &params)
}

// handleComplete routes completion/complete to the registered completion
// provider. With no provider registered, it returns an empty completion
// list rather than a protocol error, since completion/complete is an
// optional, best-effort capability a client may probe without first
// checking ServerCapabilities.Completions.
func (s *Server) handleComplete(ctx context.Context, request *protocol.Request) (*mcpproto.CompleteResult, error) {
	var params mcpproto.CompleteParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		return nil, protocol.NewInvalidParams(err.Error(), nil)
	}
	provider, ok := s.Registry.CompletionProvider()
	if !ok {
		return &mcpproto.CompleteResult{Completion: mcpproto.CompletionValues{Values: []string{}}}, nil
	}
	rc := &RequestContext{Transport: s.Dispatcher.Transport, ProgressToken: progressTokenOf(request)}
	return provider(WithRequestContext(ctx, rc), &params)
}

// handleSetLevel acknowledges logging/setLevel. TurboMCP's own logging is
// configured ambiently (see cmd/turbomcp-server); there is currently no
// per-session log level to adjust, so this only validates the request
// shape and accepts it.
func (s *Server) handleSetLevel(request *protocol.Request) (struct{}, error) {
	var params mcpproto.SetLevelParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		return struct{}{}, protocol.NewInvalidParams(err.Error(), nil)
	}
	return struct{}{}, nil
}

func progressTokenOf(request *protocol.Request) any {
	var meta struct {
		Meta struct {
			ProgressToken any `json:"progressToken"`
		} `json:"_meta"`
	}
	if err := json.Unmarshal(request.Params, &meta); err != nil {
		return nil
	}
	return meta.Meta.ProgressToken
}

// asProtocolError translates a handler error into the wire *protocol.Error,
// mapping the not-found sentinel to InternalError per the decided
// legacy-compatibility behaviour.
func asProtocolError(err error) *protocol.Error {
	if pErr, ok := err.(*protocol.Error); ok {
		return pErr
	}
	if notFound, ok := err.(*handlerNotFoundError); ok {
		return protocol.NewInternalError(notFound.Error(), nil)
	}
	return protocol.NewInternalError(err.Error(), nil)
}
