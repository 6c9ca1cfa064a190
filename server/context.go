package server

import (
	"context"
	"encoding/json"

	"github.com/viant/turbomcp/protocol"
	"github.com/viant/turbomcp/transport"
)

// RequestContext carries the per-request metadata a tool/resource/prompt
// handler needs beyond its typed parameters: the connection it arrived
// on (for server-initiated calls) and an optional progress token, per
// modelcontextprotocol-go-sdk's GetProgressToken/SetProgressToken
// pattern.
type RequestContext struct {
	Transport     transport.Transport
	ProgressToken any
}

type requestContextKey struct{}

// WithRequestContext attaches rc to ctx.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// FromContext returns the RequestContext attached to ctx, if any.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc, ok
}

// ReportProgress sends a notifications/progress notification carrying
// the request's ProgressToken. It is a no-op if the request did not
// supply a progress token.
func (rc *RequestContext) ReportProgress(ctx context.Context, progress, total float64, message string) error {
	if rc.ProgressToken == nil || rc.Transport == nil {
		return nil
	}
	params, err := json.Marshal(map[string]any{
		"progressToken": rc.ProgressToken,
		"progress":      progress,
		"total":         total,
		"message":       message,
	})
	if err != nil {
		return err
	}
	notification := &protocol.Notification{Jsonrpc: protocol.Version, Method: "notifications/progress", Params: params}
	return rc.Transport.Notify(ctx, notification)
}
