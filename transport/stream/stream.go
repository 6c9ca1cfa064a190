// Package stream implements a length-framed (and optional line-framed)
// JSON-RPC transport over any net.Conn (TCP or Unix domain sockets). It
// has no direct analogue in viant-jsonrpc (the reference corpus only shows
// STDIO/HTTP transports); it is built in the same shape as package stdio
// and transport/httpstream: one dispatcher.Dispatcher per connection,
// driven by a single reader goroutine, writing through the Transport's
// own SendData method as the dispatcher's sink.
package stream

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/viant/turbomcp/dispatcher"
	"github.com/viant/turbomcp/protocol"
	"github.com/viant/turbomcp/transport"
)

// Framing selects how message boundaries are marked on the wire.
type Framing int

const (
	// FramingLength prefixes every message with a 4-byte big-endian
	// length, the default: binary-safe and unambiguous regardless of
	// what bytes a payload contains.
	FramingLength Framing = iota
	// FramingLine delimits messages with a trailing newline, matching
	// the NDJSON convention package stdio uses; payloads must not
	// themselves contain an unescaped newline (JSON text never does).
	FramingLine
)

// DefaultMaxMessageSize bounds a single frame; a peer declaring a larger
// length is disconnected rather than risking unbounded memory growth.
const DefaultMaxMessageSize = 16 << 20 // 16MiB

const lengthPrefixSize = 4

// Transport is a single connection's JSON-RPC transport: one dispatcher,
// one writer, one reader goroutine started by Serve.
type Transport struct {
	conn           net.Conn
	framing        Framing
	maxMessageSize uint32

	dispatcher   *dispatcher.Dispatcher
	notification chan *protocol.Notification

	writeMu sync.Mutex
	closed  chan struct{}
	once    sync.Once
}

// Option configures a Transport.
type Option func(*Transport)

// WithFraming overrides the default length-prefixed framing.
func WithFraming(f Framing) Option {
	return func(t *Transport) { t.framing = f }
}

// WithMaxMessageSize overrides DefaultMaxMessageSize.
func WithMaxMessageSize(n uint32) Option {
	return func(t *Transport) { t.maxMessageSize = n }
}

// New wraps conn in a Transport. Call Serve to start reading; the
// returned Transport is usable for Send/Notify before Serve is called
// (outbound traffic does not depend on the reader loop).
func New(conn net.Conn, handler transport.Handler, opts ...Option) *Transport {
	t := &Transport{
		conn:           conn,
		framing:        FramingLength,
		maxMessageSize: DefaultMaxMessageSize,
		notification:   make(chan *protocol.Notification, 64),
		closed:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.dispatcher = dispatcher.New(t, handler, defaultRoundTripCapacity)
	return t
}

const defaultRoundTripCapacity = 256

// RegisterHandler builds a transport.NewHandler-compatible constructor
// bound to handler, for callers that build the handler after the
// Transport exists (mirrors package stdio/package httpstream).
func RegisterHandler(handler transport.Handler) transport.NewHandler {
	return func(ctx context.Context, _ transport.Transport) transport.Handler { return handler }
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

// Notify implements transport.Transport.
func (t *Transport) Notify(ctx context.Context, notification *protocol.Notification) error {
	return t.dispatcher.SendNotification(ctx, notification)
}

// Notification implements transport.Transport.
func (t *Transport) Notification() chan *protocol.Notification {
	return t.notification
}

// Close closes the underlying connection and fails every pending
// RoundTrip.
func (t *Transport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.closed)
		err = t.conn.Close()
		t.dispatcher.Close(fmt.Errorf("stream: transport closed"))
	})
	return err
}

// SendData implements dispatcher.Sender, writing one frame per the
// configured Framing.
func (t *Transport) SendData(ctx context.Context, data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	switch t.framing {
	case FramingLine:
		if len(data) == 0 || data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		_, err := t.conn.Write(data)
		return err
	default:
		if uint32(len(data)) > t.maxMessageSize {
			return fmt.Errorf("stream: outbound message %d bytes exceeds max_message_size %d", len(data), t.maxMessageSize)
		}
		var header [lengthPrefixSize]byte
		binary.BigEndian.PutUint32(header[:], uint32(len(data)))
		if _, err := t.conn.Write(header[:]); err != nil {
			return err
		}
		_, err := t.conn.Write(data)
		return err
	}
}

// Serve reads frames off the connection until it errors, EOF, or ctx is
// cancelled, handing each to the dispatcher. It must be run by exactly
// one goroutine per Transport.
func (t *Transport) Serve(ctx context.Context) error {
	defer t.Close()
	switch t.framing {
	case FramingLine:
		return t.serveLines(ctx)
	default:
		return t.serveLengthFramed(ctx)
	}
}

func (t *Transport) serveLines(ctx context.Context) error {
	reader := bufio.NewReaderSize(t.conn, 64*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.closed:
			return nil
		default:
		}
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			t.dispatcher.HandleMessage(ctx, line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (t *Transport) serveLengthFramed(ctx context.Context) error {
	reader := bufio.NewReaderSize(t.conn, 64*1024)
	var header [lengthPrefixSize]byte
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.closed:
			return nil
		default:
		}
		if _, err := io.ReadFull(reader, header[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		length := binary.BigEndian.Uint32(header[:])
		if length > t.maxMessageSize {
			return fmt.Errorf("stream: inbound message %d bytes exceeds max_message_size %d", length, t.maxMessageSize)
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(reader, payload); err != nil {
			return err
		}
		t.dispatcher.HandleMessage(ctx, payload)
	}
}
