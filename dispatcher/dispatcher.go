// Package dispatcher implements the single-consumer demultiplexer every
// TurboMCP transport hands raw frames to: exactly one goroutine ever reads
// a transport's inbound channel, classifies each frame (request,
// notification, or response), and routes it to the pending-request table
// or the handler. Grounded on the read/route loop embedded in viant-jsonrpc's
// transport/client/base.Client.HandleMessage, pulled out here so every
// transport (stdio, stream, httpstream) shares one implementation instead
// of each re-deriving it.
package dispatcher

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/viant/turbomcp/protocol"
	"github.com/viant/turbomcp/transport"
	"github.com/viant/turbomcp/transport/base"
)

// Sender is the minimal surface a Dispatcher needs to write bytes back to
// the peer. Every transport implements it (directly, or by adapting
// whatever byte sink it owns: a pipe, a socket, an HTTP response writer).
type Sender interface {
	SendData(ctx context.Context, data []byte) error
}

// Dispatcher owns the pending-request table for one connection and routes
// every decoded frame to either a RoundTrip (responses) or a
// transport.Handler (requests/notifications). It never runs more than one
// HandleMessage at a time against the same RoundTrips table from more than
// one reader; callers must ensure a single reader goroutine per
// connection.
type Dispatcher struct {
	Sender      Sender
	Handler     transport.Handler
	RoundTrips  *transport.RoundTrips
	Listener    func(*protocol.Message)
	Logger      protocol.Logger
	Interceptor transport.Interceptor
	Metrics     *Metrics
}

// New creates a Dispatcher. capacity bounds the number of concurrently
// in-flight outbound requests this connection will track.
func New(sender Sender, handler transport.Handler, capacity int) *Dispatcher {
	return &Dispatcher{
		Sender:     sender,
		Handler:    handler,
		RoundTrips: transport.NewRoundTrips(capacity),
		Logger:     protocol.DefaultLogger,
	}
}

// HandleMessage decodes one raw frame and routes it. It is safe to call
// concurrently with SendRequest/SendNotification, but must only ever be
// called by the single reader goroutine owning this connection.
func (d *Dispatcher) HandleMessage(ctx context.Context, data []byte) {
	messageType := base.MessageType(data)
	message := &protocol.Message{Type: messageType}
	if d.Listener != nil {
		defer d.Listener(message)
	}
	if d.Metrics != nil {
		d.Metrics.frameRouted(frameTypeLabel(messageType))
	}
	switch messageType {
	case protocol.MessageTypeNotification:
		d.handleNotification(ctx, data, message)
	case protocol.MessageTypeRequest:
		d.handleRequest(ctx, data, message)
	default:
		d.handleResponse(ctx, data, message)
	}
}

func frameTypeLabel(t protocol.MessageType) string {
	switch t {
	case protocol.MessageTypeNotification:
		return "notification"
	case protocol.MessageTypeRequest:
		return "request"
	default:
		return "response"
	}
}

func (d *Dispatcher) handleResponse(ctx context.Context, data []byte, message *protocol.Message) {
	response := &protocol.Response{}
	if err := json.Unmarshal(data, response); err != nil {
		d.logf("failed to parse response: %v", err)
		return
	}
	message.JsonRpcResponse = response
	trip, err := d.RoundTrips.Match(response.Id)
	if err != nil {
		d.logf("unmatched response id %v: %v", response.Id, err)
		return
	}

	var followUp *protocol.Request
	if d.Interceptor != nil {
		followUp, err = d.Interceptor.Intercept(ctx, trip.Request, response)
		if err != nil {
			d.logf("interceptor error: %v", err)
		}
	}
	if followUp != nil {
		resp, err := d.SendRequest(ctx, followUp)
		if err != nil {
			d.logf("failed to send follow-up request: %v", err)
		} else if resp != nil {
			response.Result = resp.Result
			response.Error = resp.Error
		}
	}
	trip.SetResponse(response)
}

func (d *Dispatcher) handleRequest(ctx context.Context, data []byte, message *protocol.Message) {
	response := &protocol.Response{}
	request := &protocol.Request{}
	if err := json.Unmarshal(data, request); err != nil {
		d.logf("failed to parse request: %v", err)
		return
	}
	if d.Metrics != nil {
		d.Metrics.requestStarted()
		defer d.Metrics.requestFinished()
	}
	d.Handler.Serve(ctx, request, response)
	message.JsonRpcRequest = request
	message.JsonRpcResponse = response
	if err := d.sendResponse(ctx, response); err != nil {
		d.logf("failed to send response: %v", err)
	}
}

func (d *Dispatcher) handleNotification(ctx context.Context, data []byte, message *protocol.Message) {
	notification := &protocol.Notification{}
	if err := json.Unmarshal(bytes.TrimSpace(data), notification); err != nil {
		d.logf("failed to parse notification: %v, %s", err, data)
		return
	}
	message.JsonRpcNotification = notification
	d.Handler.OnNotification(ctx, notification)
}

// SendRequest registers request in the pending-request table and writes it
// to the peer. The caller is responsible for waiting on the returned
// RoundTrip.
func (d *Dispatcher) SendRequest(ctx context.Context, request *protocol.Request) (*transport.RoundTrip, error) {
	trip, err := d.RoundTrips.Add(request)
	if err != nil {
		return nil, err
	}
	if err := d.writeMessage(ctx, protocol.NewRequestMessage(request)); err != nil {
		return nil, err
	}
	return trip, nil
}

// SendNotification writes a fire-and-forget notification to the peer.
func (d *Dispatcher) SendNotification(ctx context.Context, notification *protocol.Notification) error {
	return d.writeMessage(ctx, protocol.NewNotificationMessage(notification))
}

func (d *Dispatcher) sendResponse(ctx context.Context, response *protocol.Response) error {
	return d.writeMessage(ctx, protocol.NewResponseMessage(response))
}

func (d *Dispatcher) writeMessage(ctx context.Context, message *protocol.Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal %T: %w", message, err)
	}
	if !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}
	if d.Listener != nil {
		d.Listener(message)
	}
	return d.Sender.SendData(ctx, data)
}

// Close fails every pending RoundTrip with err so blocked callers unblock.
func (d *Dispatcher) Close(err error) {
	d.RoundTrips.CloseWithError(err)
}

func (d *Dispatcher) logf(format string, args ...interface{}) {
	if d.Logger != nil {
		d.Logger.Errorf(format, args...)
	}
}
