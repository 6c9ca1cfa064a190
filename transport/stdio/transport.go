// Package stdio implements the STDIO transport: newline-delimited
// JSON-RPC frames over a pair of byte streams. The same
// Transport type serves both roles viant-jsonrpc split into two packages
// (transport/client/stdio and transport/server/stdio): a server reads
// os.Stdin and writes os.Stdout, a client reads/writes the stdin/stdout
// pipes of a subprocess it launched (locally, or over SSH via
// github.com/viant/gosh, exactly as that client did).
package stdio

import (
	"bufio"
	"context"
	"io"

	"github.com/viant/turbomcp/dispatcher"
	"github.com/viant/turbomcp/protocol"
	"github.com/viant/turbomcp/transport"
)

// DefaultRoundTripCapacity bounds the number of in-flight outbound
// requests a single stdio connection tracks.
const DefaultRoundTripCapacity = 64

// Transport implements transport.Transport over NDJSON frames. Exactly
// one goroutine (the one running Serve) may call HandleMessage; Send and
// Notify are safe to call from any goroutine concurrently with Serve.
type Transport struct {
	dispatcher   *dispatcher.Dispatcher
	notification chan *protocol.Notification
	closed       chan struct{}
}

// New wraps sink (the outbound byte sink) and handler (the inbound
// request/notification router) into a Transport.
func New(sink dataSink, handler transport.Handler) *Transport {
	t := &Transport{
		notification: make(chan *protocol.Notification, 64),
		closed:       make(chan struct{}),
	}
	t.dispatcher = dispatcher.New(sink, handler, DefaultRoundTripCapacity)
	return t
}

// Send implements transport.Transport.
func (t *Transport) Send(ctx context.Context, request *protocol.Request) (*protocol.Response, error) {
	trip, err := t.dispatcher.SendRequest(ctx, request)
	if err != nil {
		return nil, err
	}
	if err := trip.Wait(ctx, 0); err != nil {
		return nil, err
	}
	return trip.Response, nil
}

// Notify implements transport.Notifier.
func (t *Transport) Notify(ctx context.Context, notification *protocol.Notification) error {
	return t.dispatcher.SendNotification(ctx, notification)
}

// Notification implements transport.Notifier.
func (t *Transport) Notification() chan *protocol.Notification {
	return t.notification
}

// Close implements transport.Transport.
func (t *Transport) Close() error {
	select {
	case <-t.closed:
		return nil
	default:
		close(t.closed)
	}
	t.dispatcher.Close(io.ErrClosedPipe)
	close(t.notification)
	return nil
}

// Serve reads newline-delimited frames from reader until ctx is cancelled
// or reader returns io.EOF, handing each to the dispatcher. It is the
// single reader goroutine for this Transport's lifetime: callers must
// never run two Serve loops against the same Transport.
func (t *Transport) Serve(ctx context.Context, reader io.Reader) error {
	lines := bufio.NewReaderSize(reader, 64*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := readLine(ctx, lines)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if len(line) == 0 {
			continue
		}
		t.dispatcher.HandleMessage(ctx, line)
	}
}

func readLine(ctx context.Context, reader *bufio.Reader) ([]byte, error) {
	type result struct {
		line []byte
		err  error
	}
	out := make(chan result, 1)
	go func() {
		line, err := reader.ReadBytes('\n')
		out <- result{line: line, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-out:
		if r.err != nil && len(r.line) == 0 {
			return nil, r.err
		}
		return r.line, nil
	}
}

// RegisterHandler is a convenience constructor that satisfies
// transport.NewHandler by closing over a pre-built handler, used when the
// caller already has a single Handler instance shared across connections
// (the common stdio case: one process, one peer).
func RegisterHandler(handler transport.Handler) transport.NewHandler {
	return func(_ context.Context, _ transport.Transport) transport.Handler {
		return handler
	}
}
