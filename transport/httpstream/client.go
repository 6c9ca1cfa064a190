package httpstream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs/url"

	"github.com/viant/turbomcp/dispatcher"
	"github.com/viant/turbomcp/protocol"
	"github.com/viant/turbomcp/transport"
)

// DefaultProtocolVersion is sent as the MCP-Protocol-Version header on
// every request unless overridden.
const DefaultProtocolVersion = "2025-06-18"

const defaultClientRoundTripCapacity = 256

// Client speaks the client side of the Streamable HTTP transport:
// handshake via POST (capturing the session id header), plain request/
// response POSTs, an optional long-lived GET SSE stream for
// server-initiated traffic, and POST+SSE-reply for requests the server
// chooses to answer asynchronously. Grounded on viant-jsonrpc's
// transport/client/http/streamable.{Client,Transport}.
type Client struct {
	endpoint          string
	origin            string
	httpClient        *http.Client
	sessionHeaderName string
	protocolVersion   string

	dispatcher *dispatcher.Dispatcher

	mu        sync.Mutex
	sessionID string

	streamMu     sync.Mutex
	streamActive bool
	lastEventID  uint64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default cookie-jar-backed http.Client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithProtocolVersion overrides DefaultProtocolVersion.
func WithProtocolVersion(version string) ClientOption {
	return func(c *Client) { c.protocolVersion = version }
}

// WithSessionHeaderName overrides the default "Mcp-Session-Id" header.
func WithSessionHeaderName(name string) ClientOption {
	return func(c *Client) { c.sessionHeaderName = name }
}

// Dial creates a Client targeting endpoint. The returned Client implements
// transport.Transport; newHandler builds the handler that will serve any
// server-initiated request arriving over the SSE stream.
func Dial(endpoint string, newHandler transport.NewHandler, opts ...ClientOption) *Client {
	jar, _ := cookiejar.New(nil)
	scheme := url.Scheme(endpoint, "http")
	host := url.Host(endpoint)
	c := &Client{
		endpoint:          endpoint,
		origin:            fmt.Sprintf("%s://%s", scheme, host),
		httpClient:        &http.Client{Jar: jar},
		sessionHeaderName: SessionHeader,
		protocolVersion:   DefaultProtocolVersion,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.dispatcher = dispatcher.New(c, nil, defaultClientRoundTripCapacity)
	c.dispatcher.Handler = newHandler(context.Background(), c)
	return c
}

// Send implements transport.Transport by delegating to the dispatcher's
// pending-request table.
func (c *Client) Send(ctx context.Context, request *protocol.Request) (*protocol.Response, error) {
	trip, err := c.dispatcher.SendRequest(ctx, request)
	if err != nil {
		return nil, err
	}
	if err := trip.Wait(ctx, 5*time.Minute); err != nil {
		return nil, err
	}
	return trip.Response, nil
}

// Notify implements transport.Transport.
func (c *Client) Notify(ctx context.Context, notification *protocol.Notification) error {
	return c.dispatcher.SendNotification(ctx, notification)
}

// Notification always returns nil: server-initiated notifications are
// routed through the dispatcher's Handler.OnNotification, not a channel.
func (c *Client) Notification() chan *protocol.Notification { return nil }

// Close releases the Client; pending Sends fail with err.
func (c *Client) Close() error {
	c.dispatcher.Close(fmt.Errorf("httpstream: client closed"))
	return nil
}

// SendData implements dispatcher.Sender, POSTing one already-framed
// message and routing whatever comes back (a synchronous JSON body, an
// SSE reply stream, or a bare 202 when the server intends to reply later
// over the GET stream).
func (c *Client) SendData(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("httpstream: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	req.Header.Set("Origin", c.origin)
	if c.protocolVersion != "" {
		req.Header.Set("MCP-Protocol-Version", c.protocolVersion)
	}
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()
	if sessionID != "" {
		req.Header.Set(c.sessionHeaderName, sessionID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpstream: post: %w", err)
	}
	defer resp.Body.Close()

	c.captureSession(ctx, resp)

	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, sseMimeType) {
		reader := bufio.NewReader(resp.Body)
		c.consumeSSE(ctx, reader, nil)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpstream: read response: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		if len(body) > 0 {
			c.dispatcher.HandleMessage(ctx, body)
		}
		return nil
	default:
		return fmt.Errorf("httpstream: unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// captureSession stores a session id newly issued on handshake, and opens
// the long-lived GET stream the first time one becomes available.
func (c *Client) captureSession(ctx context.Context, resp *http.Response) {
	sessionID := resp.Header.Get(c.sessionHeaderName)
	if sessionID == "" {
		return
	}
	c.mu.Lock()
	isNew := c.sessionID == ""
	c.sessionID = sessionID
	c.mu.Unlock()
	if isNew {
		c.ensureStream()
	}
}

// ensureStream starts the background GET/SSE reconnection loop, once.
func (c *Client) ensureStream() {
	c.streamMu.Lock()
	if c.streamActive {
		c.streamMu.Unlock()
		return
	}
	c.streamActive = true
	c.streamMu.Unlock()
	go c.runStream()
}

func (c *Client) runStream() {
	backoff := 500 * time.Millisecond
	const maxBackoff = 10 * time.Second
	for {
		ctx := context.Background()
		if err := c.openStream(ctx); err != nil {
			time.Sleep(backoff)
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = 500 * time.Millisecond
	}
}

func (c *Client) openStream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", sseMimeType)
	req.Header.Set("Origin", c.origin)
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()
	req.Header.Set(c.sessionHeaderName, sessionID)
	if c.protocolVersion != "" {
		req.Header.Set("MCP-Protocol-Version", c.protocolVersion)
	}
	if last := c.lastEventID; last > 0 {
		req.Header.Set(LastEventIDHeader, strconv.FormatUint(last, 10))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpstream: open stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpstream: stream status %d", resp.StatusCode)
	}
	reader := bufio.NewReader(resp.Body)
	c.consumeSSE(ctx, reader, &c.lastEventID)
	return nil
}

// consumeSSE reads frames off reader until the stream ends, feeding
// "message" events to the dispatcher and (when lastID is non-nil)
// tracking the replay cursor for reconnection.
func (c *Client) consumeSSE(ctx context.Context, reader *bufio.Reader, lastID *uint64) {
	for {
		evt, err := readSSEEvent(ctx, reader)
		if err != nil {
			return
		}
		if evt.id != "" && lastID != nil {
			if v, err := strconv.ParseUint(strings.TrimSpace(evt.id), 10, 64); err == nil {
				*lastID = v
			}
		}
		if evt.event != "message" || strings.TrimSpace(evt.data) == "" {
			continue
		}
		c.dispatcher.HandleMessage(ctx, []byte(evt.data))
	}
}

type sseEvent struct {
	id    string
	event string
	data  string
}

// readSSEEvent reads one SSE frame (terminated by a blank line) off reader.
func readSSEEvent(ctx context.Context, reader *bufio.Reader) (*sseEvent, error) {
	evt := &sseEvent{}
	var hasContent bool
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if hasContent {
				return evt, nil
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, "id:"):
			evt.id = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
			hasContent = true
		case strings.HasPrefix(line, "event:"):
			evt.event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			hasContent = true
		case strings.HasPrefix(line, "data:"):
			evt.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			hasContent = true
		}
	}
}
