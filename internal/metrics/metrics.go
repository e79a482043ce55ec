package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	StaticRequests  *prometheus.CounterVec
	BackendRequests *prometheus.CounterVec
	BackendLatency  *prometheus.HistogramVec
}

var (
	once   sync.Once
	global *Metrics
)

func Global() *Metrics {
	once.Do(func() {
		global = New()
		prometheus.MustRegister(global.StaticRequests, global.BackendRequests, global.BackendLatency)
	})
	return global
}

// New builds an unregistered set, for tests and for callers that register
// into their own prometheus.Registerer.
func New() *Metrics {
	return &Metrics{
		StaticRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "llmconnector",
			Name:      "static_requests_total",
			Help:      "Requests answered by the static asset server, by kind (asset, fallback, rejected)",
		}, []string{"kind"}),
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "llmconnector",
			Name:      "backend_requests_total",
			Help:      "Calls made to the backend data and auth APIs",
		}, []string{"table", "op", "outcome"}),
		BackendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "llmconnector",
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of backend data and auth API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"table", "op"}),
	}
}

// ObserveBackend records one backend call.
func (m *Metrics) ObserveBackend(table, op string, seconds float64, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.BackendRequests.WithLabelValues(table, op, outcome).Inc()
	m.BackendLatency.WithLabelValues(table, op).Observe(seconds)
}
