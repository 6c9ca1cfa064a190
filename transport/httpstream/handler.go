package httpstream

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/viant/turbomcp/protocol"
	"github.com/viant/turbomcp/session"
	"github.com/viant/turbomcp/transport"
	"github.com/viant/turbomcp/transport/base"
)

// DefaultMaxBodySize bounds a request body before it is parsed; an
// oversize body is rejected with 413 before any JSON decoding happens.
const DefaultMaxBodySize = 4 << 20 // 4MiB

// Handler implements the server side of the Streamable HTTP transport as
// a plain http.Handler, mountable on any *http.ServeMux path.
type Handler struct {
	Path              string
	Manager           *session.Manager
	MaxBodySize       int64
	SessionHeaderName string
	KeepAliveInterval time.Duration
}

// New builds a Handler serving sessions created by newHandler.
func New(newHandler transport.NewHandler, opts ...ManagerOption) *Handler {
	m := session.NewManager(newHandler, opts...)
	return &Handler{
		Manager:           m,
		MaxBodySize:       DefaultMaxBodySize,
		SessionHeaderName: SessionHeader,
		KeepAliveInterval: 15 * time.Second,
	}
}

// ManagerOption re-exports session.ManagerOption so callers configuring a
// Handler don't need to import package session directly.
type ManagerOption = session.ManagerOption

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Path != "" && r.URL.Path != h.Path {
		http.NotFound(w, r)
		return
	}
	if !h.Manager.IsOriginAllowed(r.Header.Get("Origin")) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodySize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	sessionID := r.Header.Get(h.SessionHeaderName)
	sess, ok := h.lookupOrCreate(r.Context(), sessionID, w)
	if !ok {
		return
	}
	sess.Touch()

	ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
	ctx = context.WithValue(ctx, authHeaderContextKey{}, r.Header.Get("Authorization"))

	if acceptsSSE(r) && looksLikeRequest(data) {
		h.streamResponse(ctx, w, sess, data)
		return
	}

	var buf bytes.Buffer
	h.dispatch(ctx, sess, data, &buf)
	if buf.Len() == 0 {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	if !acceptsSSE(r) {
		http.Error(w, "SSE not supported on this endpoint", http.StatusMethodNotAllowed)
		return
	}
	sessionID := r.Header.Get(h.SessionHeaderName)
	sess, ok := h.Manager.Lookup(sessionID)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	sess.Touch()

	w.Header().Set("Content-Type", sseMimeType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fw := newFlushWriter(w)
	handle, ok := sess.AttachStream(fw)
	if !ok {
		http.Error(w, "max_streams_per_session exceeded", http.StatusTooManyRequests)
		return
	}
	defer handle.Close()

	if last := r.Header.Get(LastEventIDHeader); last != "" {
		if v, err := strconv.ParseUint(last, 10, 64); err == nil {
			events, gap := sess.EventsAfter(v)
			if gap {
				_ = fw.WriteGap()
			}
			for i, e := range events {
				_ = fw.WriteEvent(v+uint64(i)+1, e)
			}
		}
	}

	keepAlive := time.NewTicker(h.KeepAliveInterval)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keep-alive\n\n"))
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(h.SessionHeaderName)
	if sessionID == "" {
		http.Error(w, "missing "+h.SessionHeaderName, http.StatusBadRequest)
		return
	}
	h.Manager.Delete(sessionID)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) lookupOrCreate(ctx context.Context, sessionID string, w http.ResponseWriter) (*session.Session, bool) {
	if sessionID != "" {
		if sess, ok := h.Manager.Lookup(sessionID); ok {
			return sess, true
		}
		http.Error(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	sess := h.Manager.Create(ctx)
	w.Header().Set(h.SessionHeaderName, sess.Id)
	return sess, true
}

func (h *Handler) streamResponse(ctx context.Context, w http.ResponseWriter, sess *session.Session, data []byte) {
	w.Header().Set("Content-Type", sseMimeType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fw := newFlushWriter(w)
	handle, ok := sess.AttachStream(fw)
	if !ok {
		http.Error(w, "max_streams_per_session exceeded", http.StatusTooManyRequests)
		return
	}
	defer handle.Close()
	// A POST carries exactly one request; once its response has been
	// streamed back the reply stream closes (unlike the long-lived GET
	// stream, which stays open for further server-initiated traffic).
	h.dispatch(ctx, sess, data, nil)
}

// dispatch decodes one frame and routes it into the session's handler,
// writing a synchronous response into out when non-nil (the plain-POST
// path); when out is nil the response instead goes through the session's
// attached stream writer (the hybrid POST+SSE path).
func (h *Handler) dispatch(ctx context.Context, sess *session.Session, data []byte, out *bytes.Buffer) {
	message, err := base.Decode(data)
	if err != nil {
		return
	}
	switch message.Type {
	case protocol.MessageTypeRequest:
		request := message.JsonRpcRequest
		response := &protocol.Response{Id: request.Id, Jsonrpc: request.Jsonrpc}
		sess.Handler.Serve(ctx, request, response)
		if response.Error != nil {
			response.Result = nil
		}
		encoded, err := json.Marshal(response)
		if err != nil {
			return
		}
		if out != nil {
			out.Write(encoded)
		} else {
			sess.Publish(encoded)
		}
	case protocol.MessageTypeResponse:
		response := message.JsonRpcResponse
		if trip, err := sess.RoundTrips.Match(response.Id); err == nil {
			trip.SetResponse(response)
		}
	default:
		sess.Handler.OnNotification(ctx, message.JsonRpcNotification)
	}
}

type sessionContextKey struct{}
type authHeaderContextKey struct{}

// FromContext retrieves the session attached to ctx by the handler, for
// use by higher layers (e.g. middleware.Audit) that need the session id.
func FromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return s, ok
}

// AuthHeaderFromContext retrieves the raw Authorization header value the
// handler captured for this request, for use as a
// middleware.TokenExtractor.
func AuthHeaderFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(authHeaderContextKey{}).(string)
	return v, ok && v != ""
}

func looksLikeRequest(data []byte) bool {
	return base.MessageType(data) == protocol.MessageTypeRequest
}
