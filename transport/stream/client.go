package stream

import (
	"context"
	"net"

	"github.com/viant/turbomcp/transport"
)

// Dialer connects to a TCP or Unix listener and speaks the stream
// transport over the resulting connection.
type Dialer struct {
	network string // "tcp" or "unix"
	address string
	options []Option
}

// NewDialer creates a Dialer for network ("tcp" or "unix") and address.
func NewDialer(network, address string, opts ...Option) *Dialer {
	return &Dialer{network: network, address: address, options: opts}
}

// Dial connects to the configured address and returns a Transport whose
// Serve loop is already running in the background.
func (d *Dialer) Dial(ctx context.Context, newHandler transport.NewHandler) (*Transport, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, d.network, d.address)
	if err != nil {
		return nil, err
	}
	t := New(conn, nil, d.options...)
	t.dispatcher.Handler = newHandler(ctx, t)
	go func() {
		_ = t.Serve(ctx)
	}()
	return t, nil
}
