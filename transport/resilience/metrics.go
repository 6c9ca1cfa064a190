package resilience

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors a Wrapped transport reports
// through, registered against a private registry the same way
// ruaan-deysel-unraid-management-agent's metrics package keeps its own
// registry rather than touching prometheus.DefaultRegisterer.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retriesTotal    prometheus.Counter
	circuitState    prometheus.Gauge
	dedupHits       prometheus.Counter
	healthUp        prometheus.Gauge
}

// NewMetrics creates a Metrics bound to its own registry, namespaced under
// namespace (e.g. "turbomcp").
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_requests_total",
			Help:      "Total requests sent through the resilience-wrapped transport, labeled by outcome.",
		}, []string{"outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transport_request_duration_seconds",
			Help:      "Latency of requests sent through the resilience-wrapped transport.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		retriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_retries_total",
			Help:      "Total retry attempts issued by the resilience decorator.",
		}),
		circuitState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transport_circuit_state",
			Help:      "Circuit breaker state (0=closed, 1=open, 2=half_open).",
		}),
		dedupHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_dedup_hits_total",
			Help:      "Total requests short-circuited as duplicates.",
		}),
		healthUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transport_health_up",
			Help:      "1 if the last health probe succeeded, 0 otherwise.",
		}),
	}
	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.retriesTotal,
		m.circuitState,
		m.dedupHits,
		m.healthUp,
	)
	return m
}

// Handler returns an http.Handler serving this Metrics' collectors in
// Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) observe(outcome string, seconds float64) {
	m.requestsTotal.WithLabelValues(outcome).Inc()
	m.requestDuration.WithLabelValues(outcome).Observe(seconds)
}

func (m *Metrics) recordRetry() {
	m.retriesTotal.Inc()
}

func (m *Metrics) recordCircuitState(state CircuitState) {
	m.circuitState.Set(float64(state))
}

func (m *Metrics) recordDedupHit() {
	m.dedupHits.Inc()
}

func (m *Metrics) recordHealth(up bool) {
	if up {
		m.healthUp.Set(1)
	} else {
		m.healthUp.Set(0)
	}
}
