// Package client implements the client side of a TurboMCP connection:
// the handler registry a client.Client dispatches server-initiated
// requests through (sampling, elicitation, roots) and notifications. It
// is the symmetric counterpart of package server's Registry/Dispatcher.
package client

import (
	"context"
	"encoding/json"

	"github.com/viant/turbomcp/mcpproto"
	"github.com/viant/turbomcp/protocol"
	"github.com/viant/turbomcp/transport"
)

// SamplingHandler services a server-initiated sampling/createMessage
// request.
type SamplingHandler func(ctx context.Context, params *mcpproto.CreateMessageParams) (*mcpproto.CreateMessageResult, error)

// ElicitationHandler services a server-initiated elicitation/create
// request.
type ElicitationHandler func(ctx context.Context, params *mcpproto.ElicitParams) (*mcpproto.ElicitResult, error)

// RootsHandler services a server-initiated roots/list request.
type RootsHandler func(ctx context.Context) (*mcpproto.ListRootsResult, error)

// NotificationHandler observes a notification the server sent (progress,
// resource/tool/prompt list-changed, logging, or any other method).
type NotificationHandler func(ctx context.Context, method string, params json.RawMessage)

// Client implements transport.Handler, routing server-initiated requests
// to whichever handlers have been registered. Registration is idempotent:
// registering a handler a second time logs a warning (via Logger) and
// keeps the newest registration, rather than silently stacking handlers
// or panicking.
type Client struct {
	Info   mcpproto.Implementation
	Logger protocol.Logger

	sampling     SamplingHandler
	elicitation  ElicitationHandler
	roots        RootsHandler
	notification NotificationHandler
}

// New creates a Client identifying itself with info.
func New(info mcpproto.Implementation) *Client {
	return &Client{Info: info, Logger: protocol.DefaultLogger}
}

// OnSampling registers the handler invoked for sampling/createMessage.
func (c *Client) OnSampling(handler SamplingHandler) {
	if c.sampling != nil {
		c.Logger.Errorf("client: sampling handler already registered, replacing")
	}
	c.sampling = handler
}

// OnElicitation registers the handler invoked for elicitation/create.
func (c *Client) OnElicitation(handler ElicitationHandler) {
	if c.elicitation != nil {
		c.Logger.Errorf("client: elicitation handler already registered, replacing")
	}
	c.elicitation = handler
}

// OnRoots registers the handler invoked for roots/list.
func (c *Client) OnRoots(handler RootsHandler) {
	if c.roots != nil {
		c.Logger.Errorf("client: roots handler already registered, replacing")
	}
	c.roots = handler
}

// OnNotificationReceived registers the handler invoked for every
// server-sent notification.
func (c *Client) OnNotificationReceived(handler NotificationHandler) {
	if c.notification != nil {
		c.Logger.Errorf("client: notification handler already registered, replacing")
	}
	c.notification = handler
}

// Serve implements transport.Handler.
func (c *Client) Serve(ctx context.Context, request *protocol.Request, response *protocol.Response) {
	response.Jsonrpc = protocol.Version
	response.Id = request.Id

	result, err := c.dispatch(ctx, request)
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
func (c *Client) OnNotification(ctx context.Context, notification *protocol.Notification) {
	if c.notification != nil {
		c.notification(ctx, notification.Method, notification.Params)
	}
}

func (c *Client) dispatch(ctx context.Context, request *protocol.Request) (any, error) {
	switch request.Method {
	case "ping":
		return struct{}{}, nil
	case "sampling/createMessage":
		if c.sampling == nil {
			return nil, protocol.NewMethodNotFound(request.Method)
		}
		var params mcpproto.CreateMessageParams
		if err := json.Unmarshal(request.Params, &params); err != nil {
			return nil, protocol.NewInvalidParams(err.Error(), nil)
		}
		return c.sampling(ctx, &params)
	case "elicitation/create":
		if c.elicitation == nil {
			return nil, protocol.NewMethodNotFound(request.Method)
		}
		var params mcpproto.ElicitParams
		if err := json.Unmarshal(request.Params, &params); err != nil {
			return nil, protocol.NewInvalidParams(err.Error(), nil)
		}
		return c.elicitation(ctx, &params)
	case "roots/list":
		if c.roots == nil {
			return nil, protocol.NewMethodNotFound(request.Method)
		}
		return c.roots(ctx)
	default:
		return nil, protocol.NewMethodNotFound(request.Method)
	}
}

func asProtocolError(err error) *protocol.Error {
	if pErr, ok := err.(*protocol.Error); ok {
		return pErr
	}
	return protocol.NewInternalError(err.Error(), nil)
}

// RegisterHandler adapts a Client into the transport.NewHandler
// constructor every transport dials with.
func RegisterHandler(c *Client) transport.NewHandler {
	return func(ctx context.Context, t transport.Transport) transport.Handler {
		return c
	}
}
