package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/turbomcp/protocol"
	"github.com/viant/turbomcp/transport"
)

// Config bundles the knobs Wrap composes around a transport.Transport.
// Any zero-value field disables that layer (a zero Retry.MaxAttempts
// disables retry, a nil Dedup disables deduplication, and so on) so a
// caller can opt into only the pieces it needs.
type Config struct {
	Retry   RetryConfig
	Circuit CircuitBreakerConfig
	Dedup   *DedupCache
	Health  *HealthProbeConfig
	Metrics *Metrics
}

// Wrapped decorates a transport.Transport with retry, circuit breaking,
// request deduplication, and health probing, while presenting the exact
// same transport.Transport surface: callers see nothing of the
// resilience machinery underneath.
type Wrapped struct {
	transport.Transport
	cfg     Config
	breaker *CircuitBreaker
	probe   *HealthProbe

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Wrap decorates target per cfg. If cfg.Health is set, call Start to
// begin background probing; callers that don't need probing can skip it.
func Wrap(target transport.Transport, cfg Config) *Wrapped {
	w := &Wrapped{
		Transport: target,
		cfg:       cfg,
		breaker:   NewCircuitBreaker(cfg.Circuit),
	}
	if cfg.Health != nil {
		w.probe = NewHealthProbe(target, *cfg.Health, cfg.Metrics)
	}
	return w
}

// Start launches the background health-probe loop, if configured. It is
// a no-op otherwise.
func (w *Wrapped) Start(ctx context.Context) {
	if w.probe == nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()
	go w.probe.Run(ctx)
}

// Close stops the health probe (if running) and closes the underlying
// transport.
func (w *Wrapped) Close() error {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()
	if w.probe != nil {
		w.probe.Stop()
	}
	return w.Transport.Close()
}

// Send implements transport.Transport: it deduplicates, checks the
// circuit breaker, retries with backoff, and records metrics around a
// single call to the underlying transport's Send.
func (w *Wrapped) Send(ctx context.Context, request *protocol.Request) (*protocol.Response, error) {
	if w.cfg.Dedup != nil {
		key := fmt.Sprint(request.Id)
		if w.cfg.Dedup.IsDuplicate(key) {
			if w.cfg.Metrics != nil {
				w.cfg.Metrics.recordDedupHit()
			}
			return nil, protocol.NewError(protocol.KindInvalidRequest, "duplicate request id "+key, nil)
		}
	}

	var lastErr error
	attempts := w.cfg.Retry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if err := w.breaker.Allow(); err != nil {
			return nil, err
		}

		start := time.Now()
		resp, err := w.Transport.Send(ctx, request)
		elapsed := time.Since(start).Seconds()

		if err == nil {
			w.breaker.RecordSuccess()
			if w.cfg.Metrics != nil {
				w.cfg.Metrics.observe("success", elapsed)
				w.cfg.Metrics.recordCircuitState(w.breaker.State())
			}
			return resp, nil
		}

		w.breaker.RecordFailure()
		lastErr = err
		if w.cfg.Metrics != nil {
			w.cfg.Metrics.observe("error", elapsed)
			w.cfg.Metrics.recordCircuitState(w.breaker.State())
		}

		if !w.cfg.Retry.ShouldRetry(err, attempt+1) {
			break
		}
		if w.cfg.Metrics != nil {
			w.cfg.Metrics.recordRetry()
		}

		delay := w.cfg.Retry.Delay(attempt + 1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}
