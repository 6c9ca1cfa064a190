package stdio

import (
	"context"
	"os"

	"github.com/viant/turbomcp/transport"
)

// NewServer builds a Transport that writes responses/notifications to
// out, the shape a process launched by an MCP host takes, where
// os.Stdin/os.Stdout already are the transport. NewServer does not read
// in; inbound frames are read by Serve from the reader passed to it.
func NewServer(in *os.File, out *os.File, newHandler transport.NewHandler) *Transport {
	sink := newWriterSink(out)
	t := New(sink, nil)
	t.dispatcher.Handler = newHandler(context.Background(), t)
	return t
}

// ListenAndServe builds a server Transport over os.Stdin/os.Stdout and
// blocks serving it until EOF or ctx is cancelled.
func ListenAndServe(ctx context.Context, newHandler transport.NewHandler) error {
	t := NewServer(os.Stdin, os.Stdout, newHandler)
	defer t.Close()
	return t.Serve(ctx, os.Stdin)
}
