package httpstream

import (
	"context"
	"net/http"
)

// Listener wraps an http.Server bound to a Handler, so a cmd/ binary
// doesn't need to reach into net/http directly to stand up the
// Streamable HTTP transport.
type Listener struct {
	server http.Server
	addr   string
}

// NewListener creates a Listener serving handler on addr.
func NewListener(addr string, handler http.Handler) *Listener {
	return &Listener{addr: addr, server: http.Server{Handler: handler}}
}

// Start runs the listener, blocking until it stops or errors. Callers
// typically run it in its own goroutine and call Shutdown to stop it.
func (l *Listener) Start() error {
	l.server.Addr = l.addr
	return l.server.ListenAndServe()
}

// Shutdown gracefully stops the listener, waiting for in-flight
// requests (including open SSE streams) to drain or ctx to expire.
func (l *Listener) Shutdown(ctx context.Context) error {
	return l.server.Shutdown(ctx)
}
