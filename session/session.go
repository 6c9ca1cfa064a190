// Package session implements the Streamable HTTP session manager:
// per-session event ring buffers with monotonic ids, idle/absolute expiry,
// and the replay semantics transport/httpstream's SSE handler relies on.
// Grounded on viant-jsonrpc's transport/server/base Session/SessionStore,
// generalized from "one Session per stdio process" to "many concurrent
// sessions keyed by Mcp-Session-Id".
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cskr/pubsub"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/viant/turbomcp/protocol"
	"github.com/viant/turbomcp/transport"
)

// eventsTopic is the single cskr/pubsub topic each Session's hub fans
// published events out on; one hub per session keeps subscribers scoped
// to that session without needing a topic per stream.
const eventsTopic = "events"

// streamChannelCapacity bounds how many events a slow SSE stream can fall
// behind by before cskr/pubsub's Pub starts blocking the publisher.
const streamChannelCapacity = 32

func encode(message *protocol.Message) ([]byte, error) {
	return json.Marshal(message)
}

// State is a session's lifecycle state: Created -> Active -> Idle ->
// Expired -> gc.
type State int

const (
	StateActive State = iota
	StateIdle
	StateExpired
)

// event is one buffered, already-framed SSE payload.
type event struct {
	id   uint64
	data []byte
}

// Session is one Streamable HTTP session: an event ring buffer, a
// pending-request table for server-initiated requests, and the
// bookkeeping the janitor needs to expire it.
type Session struct {
	Id      string
	Handler transport.Handler

	mu           sync.Mutex
	hub          *pubsub.PubSub
	events       []event
	nextEventID  uint64
	bufferSize   int
	createdAt    time.Time
	lastActivity time.Time
	sessionTTL   time.Duration
	idleTTL      time.Duration
	state        State
	streamCount  int
	maxStreams   int
	RoundTrips   *transport.RoundTrips
}

// eventWriter is implemented by the SSE handler behind an attached stream.
type eventWriter interface {
	WriteEvent(id uint64, data []byte) error
}

// Option configures a Session at creation.
type Option func(*Session)

// WithBufferSize overrides the default event ring capacity.
func WithBufferSize(n int) Option {
	return func(s *Session) { s.bufferSize = n }
}

// WithSessionTTL overrides the absolute session lifetime.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Session) { s.sessionTTL = d }
}

// WithIdleTTL overrides the idle timeout measured from last activity.
func WithIdleTTL(d time.Duration) Option {
	return func(s *Session) { s.idleTTL = d }
}

// WithMaxStreams overrides how many concurrent GET/SSE streams a session
// permits ("max_streams_per_session").
func WithMaxStreams(n int) Option {
	return func(s *Session) { s.maxStreams = n }
}

const (
	defaultBufferSize = 256
	defaultSessionTTL = 24 * time.Hour
	defaultIdleTTL    = 30 * time.Minute
	defaultMaxStreams = 4
)

// New creates a Session bound to newHandler, generating an id if none is
// supplied.
func New(ctx context.Context, id string, newHandler transport.NewHandler, opts ...Option) *Session {
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now()
	s := &Session{
		Id:           id,
		createdAt:    now,
		lastActivity: now,
		bufferSize:   defaultBufferSize,
		sessionTTL:   defaultSessionTTL,
		idleTTL:      defaultIdleTTL,
		maxStreams:   defaultMaxStreams,
		state:        StateActive,
		RoundTrips:   transport.NewRoundTrips(64),
		hub:          pubsub.New(streamChannelCapacity),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Handler = newHandler(ctx, &handlerTransport{session: s})
	return s
}

// Touch marks the session as freshly active; call on every request
// attached to the session.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.state = StateActive
	s.mu.Unlock()
}

// StreamHandle is a live SSE stream's subscription to its session's event
// hub; Close unsubscribes and releases the stream's slot in
// max_streams_per_session.
type StreamHandle struct {
	session *Session
	ch      chan interface{}
}

// Close unsubscribes the stream and decrements the session's live stream
// count. The session itself stays alive; only live push to this stream
// stops.
func (h *StreamHandle) Close() {
	h.session.hub.Unsub(h.ch, eventsTopic)
	h.session.mu.Lock()
	h.session.streamCount--
	if h.session.streamCount < 0 {
		h.session.streamCount = 0
	}
	h.session.mu.Unlock()
}

func (h *StreamHandle) forward(w eventWriter) {
	for msg := range h.ch {
		e, ok := msg.(event)
		if !ok {
			continue
		}
		_ = w.WriteEvent(e.id, e.data)
	}
}

// AttachStream registers a live SSE writer, enforcing
// max_streams_per_session, and starts forwarding every event the session
// publishes from then on to w. Every attached stream gets its own
// subscription off the session's cskr/pubsub hub, so a session with
// max_streams_per_session > 1 fans the same event out to each of them
// instead of only the most recently attached one.
func (s *Session) AttachStream(w eventWriter) (*StreamHandle, bool) {
	s.mu.Lock()
	if s.streamCount >= s.maxStreams {
		s.mu.Unlock()
		return nil, false
	}
	s.streamCount++
	s.mu.Unlock()

	handle := &StreamHandle{session: s, ch: s.hub.Sub(eventsTopic)}
	go handle.forward(w)
	return handle, true
}

// Publish appends data as a new event, assigning the next monotonic id,
// and fans it out to every attached stream. It is how notifications and
// server-initiated requests reach a session's SSE channel(s).
func (s *Session) Publish(data []byte) {
	s.mu.Lock()
	s.nextEventID++
	id := s.nextEventID
	buffered := append([]byte(nil), data...)
	s.events = append(s.events, event{id: id, data: buffered})
	if len(s.events) > s.bufferSize {
		excess := len(s.events) - s.bufferSize
		s.events = s.events[excess:]
	}
	s.mu.Unlock()
	s.hub.Pub(event{id: id, data: buffered}, eventsTopic)
}

// EventsAfter returns every buffered event with id strictly greater than
// lastID, in id order, plus gap = true if lastID predates the oldest
// buffered event (meaning some events could not be replayed and the
// caller should treat the stream as having a hole in it).
func (s *Session) EventsAfter(lastID uint64) (events [][]byte, gap bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return nil, false
	}
	oldest := s.events[0].id
	if lastID != 0 && lastID < oldest-1 {
		gap = true
	}
	var out [][]byte
	for _, ev := range s.events {
		if ev.id > lastID {
			out = append(out, ev.data)
		}
	}
	return out, gap
}

// State reports the session's current lifecycle state without mutating
// it (see Sweep for the transition logic).
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Sweep advances the session's lifecycle state based on elapsed time,
// called by the Manager's janitor. It never blocks and never sleeps;
// All transitions are driven by request arrival or a periodic janitor,
// never a sleep-and-check loop on the request path.
func (s *Session) Sweep(now time.Time) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateExpired {
		return s.state
	}
	if now.Sub(s.createdAt) > s.sessionTTL {
		s.state = StateExpired
		return s.state
	}
	if now.Sub(s.lastActivity) > s.idleTTL {
		s.state = StateIdle
		if now.Sub(s.lastActivity) > s.idleTTL*2 {
			s.state = StateExpired
		}
	}
	return s.state
}

// handlerTransport adapts a Session into transport.Transport so a
// server-side handler can issue server-initiated requests (sampling,
// elicitation, roots, ping) back to the client through the session's
// event stream, reusing the same RoundTrips pending-table mechanics every
// other transport uses.
type handlerTransport struct {
	session *Session
}

func (h *handlerTransport) Notify(ctx context.Context, notification *protocol.Notification) error {
	data, err := encode(protocol.NewNotificationMessage(notification))
	if err != nil {
		return err
	}
	h.session.Publish(data)
	return nil
}

func (h *handlerTransport) Notification() chan *protocol.Notification {
	return nil
}

func (h *handlerTransport) Send(ctx context.Context, request *protocol.Request) (*protocol.Response, error) {
	trip, err := h.session.RoundTrips.Add(request)
	if err != nil {
		return nil, err
	}
	data, err := encode(protocol.NewRequestMessage(request))
	if err != nil {
		return nil, err
	}
	h.session.Publish(data)
	if err := trip.Wait(ctx, 5*time.Minute); err != nil {
		return nil, err
	}
	return trip.Response, nil
}

func (h *handlerTransport) Close() error {
	return nil
}
