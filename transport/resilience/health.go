package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/viant/turbomcp/protocol"
	"github.com/viant/turbomcp/transport"
)

// HealthProbeConfig configures periodic liveness probing of an underlying
// transport via the "ping" method every MCP transport supports.
type HealthProbeConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// DefaultHealthProbeConfig probes every 15s with a 5s timeout.
func DefaultHealthProbeConfig() HealthProbeConfig {
	return HealthProbeConfig{Interval: 15 * time.Second, Timeout: 5 * time.Second}
}

// HealthProbe periodically pings an underlying transport.Transport and
// reports whether the last probe succeeded (Healthy) and records the
// result in Metrics. Wrapped.Send does not consult Healthy, and probe
// failures are not fed into the circuit breaker.
type HealthProbe struct {
	target  transport.Transport
	cfg     HealthProbeConfig
	metrics *Metrics

	mu      sync.RWMutex
	healthy bool

	stop chan struct{}
	once sync.Once
}

// NewHealthProbe creates a HealthProbe against target. Run must be called
// to start the background loop.
func NewHealthProbe(target transport.Transport, cfg HealthProbeConfig, metrics *Metrics) *HealthProbe {
	return &HealthProbe{target: target, cfg: cfg, metrics: metrics, healthy: true, stop: make(chan struct{})}
}

// Run blocks, probing on cfg.Interval until ctx is cancelled or Stop is
// called.
func (p *HealthProbe) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			p.probe(ctx)
		}
	}
}

// Stop ends the background probing loop.
func (p *HealthProbe) Stop() {
	p.once.Do(func() { close(p.stop) })
}

// Healthy reports the outcome of the most recent probe (true until the
// first probe completes).
func (p *HealthProbe) Healthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.healthy
}

func (p *HealthProbe) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := protocol.NewRequest("ping", nil)
	ok := err == nil
	if ok {
		req.Id = uuid.NewString()
		_, sendErr := p.target.Send(probeCtx, req)
		ok = sendErr == nil
	}

	p.mu.Lock()
	p.healthy = ok
	p.mu.Unlock()
	if p.metrics != nil {
		p.metrics.recordHealth(ok)
	}
}
