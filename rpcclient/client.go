// Package rpcclient implements the generic protocol-level client: it owns
// outbound request id assignment, delegates framing and pending-request
// bookkeeping to dispatcher.Dispatcher, and exposes a
// blocking Call/Notify surface to callers (the MCP-level client in
// package client, or a server issuing a server-initiated sampling
// request). Grounded on viant-jsonrpc's transport/client/base.Client, split so
// the single-consumer routing lives in dispatcher and this package is left
// with only id assignment and the synchronous waiting contract.
package rpcclient

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/viant/turbomcp/dispatcher"
	"github.com/viant/turbomcp/protocol"
	"github.com/viant/turbomcp/transport"
)

// DefaultRunTimeout bounds how long Call waits for a response. When the
// caller's context carries its own deadline, the tighter of the two applies.
const DefaultRunTimeout = 60 * time.Second

// DefaultRoundTripCapacity is the default size of the pending-request
// ring, matching a typical in-flight request volume for a single
// MCP session.
const DefaultRoundTripCapacity = 256

// Client issues outbound JSON-RPC requests/notifications over a
// dispatcher.Dispatcher and waits for correlated responses.
type Client struct {
	Dispatcher *dispatcher.Dispatcher
	RunTimeout time.Duration
	Logger     protocol.Logger
	counter    uint64
}

// Option configures a Client.
type Option func(*Client)

// WithRunTimeout overrides DefaultRunTimeout.
func WithRunTimeout(d time.Duration) Option {
	return func(c *Client) { c.RunTimeout = d }
}

// WithLogger overrides the client's error logger.
func WithLogger(logger protocol.Logger) Option {
	return func(c *Client) { c.Logger = logger }
}

// WithInterceptor registers a response interceptor on the underlying
// dispatcher (see transport.Interceptor).
func WithInterceptor(interceptor transport.Interceptor) Option {
	return func(c *Client) { c.Dispatcher.Interceptor = interceptor }
}

// New creates a Client that sends over sender and routes inbound frames
// through handler. capacity bounds concurrent in-flight requests.
func New(sender dispatcher.Sender, handler transport.Handler, capacity int, opts ...Option) *Client {
	if capacity <= 0 {
		capacity = DefaultRoundTripCapacity
	}
	c := &Client{
		Dispatcher: dispatcher.New(sender, handler, capacity),
		RunTimeout: DefaultRunTimeout,
		Logger:     protocol.DefaultLogger,
	}
	c.Dispatcher.Logger = c.Logger
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// nextID assigns a monotonically increasing integer request id. TurboMCP
// never reuses an id within a connection's lifetime, so a matching
// response can never be confused with a stale one.
func (c *Client) nextID() int64 {
	return int64(atomic.AddUint64(&c.counter, 1))
}

// Call sends method with parameters and blocks for the correlated
// response.
func (c *Client) Call(ctx context.Context, method string, parameters interface{}) (*protocol.Response, error) {
	request, err := protocol.NewRequest(method, parameters)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: %w", err)
	}
	request.Id = c.nextID()
	trip, err := c.Dispatcher.SendRequest(ctx, request)
	if err != nil {
		return nil, err
	}
	timeout := c.RunTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			if timeout <= 0 {
				timeout = remaining
			} else {
				timeout = min(timeout, remaining)
			}
		}
	}
	if err := trip.Wait(ctx, timeout); err != nil {
		return nil, err
	}
	return trip.Response, nil
}

// Notify sends a fire-and-forget notification; it never waits for a
// response because JSON-RPC notifications never receive one.
func (c *Client) Notify(ctx context.Context, method string, parameters interface{}) error {
	request, err := protocol.NewRequest(method, parameters)
	if err != nil {
		return fmt.Errorf("rpcclient: %w", err)
	}
	return c.Dispatcher.SendNotification(ctx, &protocol.Notification{
		Jsonrpc: request.Jsonrpc,
		Method:  request.Method,
		Params:  request.Params,
	})
}

// HandleMessage feeds one raw inbound frame to the underlying dispatcher.
// The transport's single reader goroutine must be the only caller.
func (c *Client) HandleMessage(ctx context.Context, data []byte) {
	c.Dispatcher.HandleMessage(ctx, data)
}

// Close fails every pending Call with err.
func (c *Client) Close(err error) {
	c.Dispatcher.Close(err)
}
