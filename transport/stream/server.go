package stream

import (
	"context"
	"net"
	"sync"

	"github.com/viant/turbomcp/protocol"
	"github.com/viant/turbomcp/transport"
)

// Server accepts connections on a net.Listener (TCP or Unix), serving
// each with an independent Transport/dispatcher/pending-request table;
// connections never share state beyond the Handler constructor they were
// built with.
type Server struct {
	listener   net.Listener
	newHandler transport.NewHandler
	options    []Option
	logger     protocol.Logger

	mu    sync.Mutex
	conns map[*Transport]struct{}
}

// NewServer wraps an already-listening net.Listener.
func NewServer(listener net.Listener, newHandler transport.NewHandler, opts ...Option) *Server {
	return &Server{
		listener:   listener,
		newHandler: newHandler,
		options:    opts,
		logger:     protocol.DefaultLogger,
		conns:      make(map[*Transport]struct{}),
	}
}

// Serve accepts connections until ctx is cancelled or Accept fails.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	t := New(conn, nil, s.options...)
	t.dispatcher.Handler = s.newHandler(ctx, t)

	s.mu.Lock()
	s.conns[t] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, t)
		s.mu.Unlock()
	}()

	if err := t.Serve(ctx); err != nil {
		s.logger.Errorf("stream: connection %s closed: %v", conn.RemoteAddr(), err)
	}
}

// Close closes the listener and every active connection.
func (s *Server) Close() error {
	err := s.listener.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	for t := range s.conns {
		_ = t.Close()
	}
	return err
}

// Connections returns the number of currently active connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
