package server

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/viant/turbomcp/mcpproto"
	"github.com/viant/turbomcp/protocol"
	"github.com/viant/turbomcp/transport"
)

// Dispatcher issues server-initiated requests (sampling, elicitation,
// roots, ping) back over the connection a server Handler was invoked
// on, via the same transport.Transport.Send every client-initiated
// request rides on.
type Dispatcher struct {
	Transport transport.Transport
}

// NewDispatcher creates a Dispatcher bound to t.
func NewDispatcher(t transport.Transport) *Dispatcher {
	return &Dispatcher{Transport: t}
}

// CreateMessage asks the client's model to sample a completion for
// params, supporting the tool-use routing extension
// (params.Tools/ToolChoice).
func (d *Dispatcher) CreateMessage(ctx context.Context, params *mcpproto.CreateMessageParams) (*mcpproto.CreateMessageResult, error) {
	var result mcpproto.CreateMessageResult
	if err := d.call(ctx, "sampling/createMessage", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Elicit asks the client to collect structured input from its user.
func (d *Dispatcher) Elicit(ctx context.Context, params *mcpproto.ElicitParams) (*mcpproto.ElicitResult, error) {
	var result mcpproto.ElicitResult
	if err := d.call(ctx, "elicitation/create", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListRoots asks the client for its current filesystem/URI roots.
func (d *Dispatcher) ListRoots(ctx context.Context) (*mcpproto.ListRootsResult, error) {
	var result mcpproto.ListRootsResult
	if err := d.call(ctx, "roots/list", &mcpproto.ListRootsParams{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping checks that the client is still responsive.
func (d *Dispatcher) Ping(ctx context.Context) error {
	return d.call(ctx, "ping", &mcpproto.PingParams{}, nil)
}

func (d *Dispatcher) call(ctx context.Context, method string, params any, result any) error {
	request, err := protocol.NewRequest(method, params)
	if err != nil {
		return err
	}
	request.Id = uuid.NewString()
	resp, err := d.Transport.Send(ctx, request)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	if result == nil || len(resp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Result, result)
}
