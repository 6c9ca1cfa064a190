package transport

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/turbomcp/protocol"
)

// RoundTrip tracks one outstanding request awaiting its correlated
// response. It is the unit the pending-request table (RoundTrips) hands
// back to a caller of Transport.Send.
type RoundTrip struct {
	Request  *protocol.Request
	Response *protocol.Response
	err      error
	done     chan struct{}
}

// NewRoundTrip creates a new round trip for request.
func NewRoundTrip(request *protocol.Request) *RoundTrip {
	return &RoundTrip{
		Request: request,
		done:    make(chan struct{}),
	}
}

// Wait blocks until the round trip completes, ctx is cancelled, or timeout
// elapses (a timeout of 0 disables the local deadline and defers entirely
// to ctx).
func (t *RoundTrip) Wait(ctx context.Context, timeout time.Duration) error {
	var timer <-chan time.Time
	if timeout > 0 {
		tm := time.NewTimer(timeout)
		defer tm.Stop()
		timer = tm.C
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer:
		return protocol.NewTimeoutError(fmt.Sprintf("timed out waiting for response to %q", t.Request.Method))
	case <-t.done:
		return t.err
	}
}

// SetError completes the round trip with a JSON-RPC error response.
func (t *RoundTrip) SetError(err *protocol.Error) {
	t.Response = &protocol.Response{Id: t.Request.Id, Jsonrpc: t.Request.Jsonrpc, Error: err}
	close(t.done)
}

// SetResponse completes the round trip with response.
func (t *RoundTrip) SetResponse(response *protocol.Response) {
	t.Response = response
	close(t.done)
}

// RoundTrips is a fixed-capacity ring of in-flight RoundTrips, keyed by
// request id. Capacity bounds how many concurrent outbound requests a
// Transport will track; Add fails once the ring is full rather than
// growing unbounded, which keeps a misbehaving peer from exhausting
// memory.
type RoundTrips struct {
	counter  uint64
	mu       sync.Mutex
	Ring     []*RoundTrip
	next     uint64
	capacity int
	error    error
}

// NewRoundTrips creates a RoundTrips table with the given ring capacity.
func NewRoundTrips(capacity int) *RoundTrips {
	return &RoundTrips{
		Ring:     make([]*RoundTrip, capacity),
		capacity: capacity,
	}
}

// CloseWithError fails every future Add/Match with err, used when the
// owning transport shuts down so callers blocked in Wait unblock instead
// of hanging.
func (r *RoundTrips) CloseWithError(err error) {
	r.mu.Lock()
	r.error = err
	pending := make([]*RoundTrip, 0, len(r.Ring))
	for i, trip := range r.Ring {
		if trip != nil {
			pending = append(pending, trip)
			r.Ring[i] = nil
		}
	}
	r.mu.Unlock()
	for _, trip := range pending {
		trip.SetError(protocol.NewTransportError(err.Error()))
	}
}

// Match removes and returns the trip whose request id equals id.
func (r *RoundTrips) Match(id any) (*RoundTrip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.error != nil {
		return nil, r.error
	}
	for i := 0; i < r.capacity; i++ {
		if r.Ring[i] != nil && equals(r.Ring[i].Request.Id, id) {
			ret := r.Ring[i]
			r.Ring[i] = nil
			return ret, nil
		}
	}
	return nil, errors.New("round trip not found")
}

// Add registers request and returns its RoundTrip, or an error if the
// ring has no free slot.
func (r *RoundTrips) Add(request *protocol.Request) (*RoundTrip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.error != nil {
		return nil, r.error
	}
	from := int(atomic.AddUint64(&r.counter, 1) - 1)
	for i := 0; i < r.capacity; i++ {
		slot := (from + i) % r.capacity
		if r.Ring[slot] == nil {
			ret := NewRoundTrip(request)
			r.Ring[slot] = ret
			return ret, nil
		}
	}
	return nil, errors.New("failed to add request, round trip ring is full")
}

// Size returns the number of trips currently in flight.
func (r *RoundTrips) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, trip := range r.Ring {
		if trip != nil {
			n++
		}
	}
	return n
}

func equals(id1 protocol.MessageId, id2 any) bool {
	if id1 == nil || id2 == nil {
		return id1 == nil && id2 == nil
	}
	id1Type := reflect.TypeOf(id1)
	id2Type := reflect.TypeOf(id2)
	if id1Type.Kind() == id2Type.Kind() {
		return id1 == id2
	}
	switch id1Type.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return asInt(id1) == asInt(id2)
	}
	return false
}

func asInt(v interface{}) int {
	switch val := v.(type) {
	case int:
		return val
	case int8:
		return int(val)
	case int16:
		return int(val)
	case int32:
		return int(val)
	case int64:
		return int(val)
	case uint:
		return int(val)
	case uint8:
		return int(val)
	case uint16:
		return int(val)
	case uint32:
		return int(val)
	case uint64:
		return int(val)
	case float32:
		return int(val)
	case float64:
		return int(val)
	}
	return -1
}
