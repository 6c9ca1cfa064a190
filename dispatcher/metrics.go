package dispatcher

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors a Dispatcher reports through,
// registered against a private registry rather than the global
// DefaultRegisterer, the same pattern transport/resilience.Metrics uses.
type Metrics struct {
	registry   *prometheus.Registry
	inFlight   prometheus.Gauge
	framesSeen *prometheus.CounterVec
}

// NewMetrics creates a Metrics bound to its own registry, namespaced under
// namespace (e.g. "turbomcp").
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatcher_inflight_handler_tasks",
			Help:      "Requests currently being served by this dispatcher's handler.",
		}),
		framesSeen: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatcher_frames_total",
			Help:      "Frames routed by the dispatcher, labeled by frame type.",
		}, []string{"type"}),
	}
	m.registry.MustRegister(m.inFlight, m.framesSeen)
	return m
}

// Registry exposes the underlying registry so callers can merge it into a
// combined /metrics endpoint alongside transport/resilience.Metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) requestStarted() { m.inFlight.Inc() }
func (m *Metrics) requestFinished() { m.inFlight.Dec() }

func (m *Metrics) frameRouted(frameType string) {
	m.framesSeen.WithLabelValues(frameType).Inc()
}
