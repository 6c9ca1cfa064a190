package session

import (
	"context"
	"sync"
	"time"

	"github.com/viant/turbomcp/internal/collection"
	"github.com/viant/turbomcp/transport"
)

// Manager owns every Session for a Streamable HTTP listener: creation,
// lookup, origin validation, and periodic expiry via Sweep. Grounded on
// viant-jsonrpc's transport/server/base.SessionStore, expanded with the
// idle/absolute janitor a multi-session listener needs: session
// mutations are serialised per session, inter-session operations are
// independent.
type Manager struct {
	sessions    *collection.SyncMap[string, *Session]
	newHandler  transport.NewHandler
	options     []Option
	allowOrigin map[string]bool

	stopOnce sync.Once
	stop     chan struct{}
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithSessionOptions applies opts to every Session the Manager creates.
func WithSessionOptions(opts ...Option) ManagerOption {
	return func(m *Manager) { m.options = append(m.options, opts...) }
}

// WithAllowedOrigins enables origin validation: requests carrying an
// Origin header not in this list are rejected by the HTTP handler before
// they ever reach the Manager. An empty list disables the check.
func WithAllowedOrigins(origins ...string) ManagerOption {
	return func(m *Manager) {
		if m.allowOrigin == nil {
			m.allowOrigin = make(map[string]bool, len(origins))
		}
		for _, o := range origins {
			m.allowOrigin[o] = true
		}
	}
}

// NewManager creates a Manager whose sessions are all built with
// newHandler.
func NewManager(newHandler transport.NewHandler, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions:   collection.NewSyncMap[string, *Session](),
		newHandler: newHandler,
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsOriginAllowed reports whether origin may proceed. When no allow-list
// was configured, every origin (including none) is allowed.
func (m *Manager) IsOriginAllowed(origin string) bool {
	if len(m.allowOrigin) == 0 {
		return true
	}
	if origin == "" {
		return false
	}
	return m.allowOrigin[origin]
}

// Create allocates a new Session with a generated id.
func (m *Manager) Create(ctx context.Context) *Session {
	s := New(ctx, "", m.newHandler, m.options...)
	m.sessions.Set(s.Id, s)
	return s
}

// Lookup returns the session for id if it exists and has not expired.
func (m *Manager) Lookup(id string) (*Session, bool) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return nil, false
	}
	if s.Sweep(time.Now()) == StateExpired {
		m.sessions.Delete(id)
		return nil, false
	}
	return s, true
}

// Delete explicitly removes a session (DELETE <path> with Mcp-Session-Id).
func (m *Manager) Delete(id string) {
	m.sessions.Delete(id)
}

// Len returns the number of tracked sessions, including ones pending
// expiry collection.
func (m *Manager) Len() int {
	return m.sessions.Len()
}

// RunJanitor periodically sweeps every session's lifecycle state and
// garbage-collects those that are Expired, until ctx is cancelled or
// Stop is called. It is the only place sleep-and-check timing appears;
// never on a request path.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case now := <-ticker.C:
			var expired []string
			m.sessions.Range(func(id string, s *Session) bool {
				if s.Sweep(now) == StateExpired {
					expired = append(expired, id)
				}
				return true
			})
			for _, id := range expired {
				m.sessions.Delete(id)
			}
		}
	}
}

// Stop ends a running janitor loop.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}
