// Package httpstream implements the Streamable HTTP transport: a single
// endpoint that handles plain request/response POSTs, server-initiated
// SSE over GET, and hybrid POST-with-SSE-reply, backed by the session
// manager in package session. Grounded on viant-jsonrpc's
// transport/server/http/streamable and transport/client/http/streamable,
// merged into one role-agnostic package with the client/server split of
// transport/server/http/{sse,streaming} folded in as the single SSE
// framer below.
package httpstream

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"golang.org/x/net/publicsuffix"
)

const (
	// SessionHeader is the default HTTP header carrying the session id, per
	// the de-facto "Mcp-Session-Id" wire name.
	SessionHeader = "Mcp-Session-Id"
	// LastEventIDHeader carries the replay cursor on a reconnecting stream.
	LastEventIDHeader = "Last-Event-ID"
	sseMimeType       = "text/event-stream"
)

// flushWriter wraps an http.ResponseWriter and flushes after every write,
// required for SSE and chunked NDJSON responses to reach the client
// without buffering delay.
type flushWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

func newFlushWriter(w http.ResponseWriter) *flushWriter {
	f, _ := w.(http.Flusher)
	return &flushWriter{w: w, f: f}
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if err == nil && fw.f != nil {
		fw.f.Flush()
	}
	return n, err
}

// WriteEvent implements session.eventWriter, formatting data as one SSE
// "message" event bearing id: each SSE event carries an id: line equal
// to the session-scoped event id.
func (fw *flushWriter) WriteEvent(id uint64, data []byte) error {
	_, err := fmt.Fprintf(fw.w, "id: %d\nevent: message\ndata: %s\n\n", id, strings.TrimSpace(string(data)))
	if err == nil && fw.f != nil {
		fw.f.Flush()
	}
	return err
}

// WriteGap emits a comment-only SSE event marking a gap, when a replay
// cursor predates the oldest buffered event.
func (fw *flushWriter) WriteGap() error {
	_, err := fmt.Fprint(fw.w, ": gap\n\n")
	if err == nil && fw.f != nil {
		fw.f.Flush()
	}
	return err
}

// acceptsSSE reports whether r declares it can consume an SSE response.
func acceptsSSE(r *http.Request) bool {
	for _, v := range r.Header.Values("Accept") {
		if strings.Contains(v, sseMimeType) {
			return true
		}
	}
	return false
}

// topDomain returns eTLD+1 for host, used when a deployment wants the
// session cookie scoped to a whole domain rather than one subdomain.
func topDomain(host string) (string, error) {
	host = stripPort(host)
	if host == "" || net.ParseIP(host) != nil || isLocalhost(host) {
		return "", nil
	}
	e, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil || e == host {
		return "", err
	}
	return e, nil
}

func isLocalhost(h string) bool {
	h = strings.ToLower(h)
	return h == "localhost" || strings.HasSuffix(h, ".localhost")
}

func stripPort(h string) string {
	if i := strings.IndexByte(h, ':'); i > -1 {
		return h[:i]
	}
	return h
}
