package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the module runtime
type Metrics struct {
	ModulesByStatus  *prometheus.GaugeVec
	ModuleOperations *prometheus.CounterVec
	HookDuration     *prometheus.HistogramVec
	EventsEmitted    *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	WSConnections prometheus.Gauge
}

// NewMetrics registers all collectors on the default registry
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers all collectors on reg. Tests pass a fresh
// registry so parallel suites do not collide.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ModulesByStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "solstreak_modules_by_status",
				Help: "Registered modules partitioned by lifecycle status",
			},
			[]string{"status"},
		),
		ModuleOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solstreak_module_operations_total",
				Help: "Lifecycle operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		HookDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solstreak_module_hook_duration_seconds",
				Help:    "Module lifecycle hook execution time",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"phase"},
		),
		EventsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solstreak_module_events_total",
				Help: "Lifecycle events emitted by kind",
			},
			[]string{"kind"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solstreak_http_requests_total",
				Help: "HTTP requests by method, path and status",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solstreak_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "solstreak_ws_connections",
				Help: "Active websocket event stream connections",
			},
		),
	}
}

// SetModuleCounts replaces the per-status gauges
func (m *Metrics) SetModuleCounts(counts map[string]int) {
	for status, count := range counts {
		m.ModulesByStatus.WithLabelValues(status).Set(float64(count))
	}
}

// CountModuleOperation records one lifecycle operation outcome
func (m *Metrics) CountModuleOperation(operation, outcome string) {
	m.ModuleOperations.WithLabelValues(operation, outcome).Inc()
}

// ObserveHook records one hook execution
func (m *Metrics) ObserveHook(phase string, d time.Duration) {
	m.HookDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// CountEvent records one emitted lifecycle event
func (m *Metrics) CountEvent(kind string) {
	m.EventsEmitted.WithLabelValues(kind).Inc()
}
