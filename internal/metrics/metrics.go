package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	backtestsTotal   *prometheus.CounterVec
	backtestDuration prometheus.Histogram
	rebalancesTotal  prometheus.Counter
	warningsTotal    *prometheus.CounterVec
	panelCacheTotal  *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rotation_backtests_total",
			Help: "Total number of backtest runs",
		},
		[]string{"status", "direction"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rotation_backtest_duration_seconds",
			Help:    "Backtest run duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
	r.rebalancesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rotation_rebalances_total",
			Help: "Total number of rebalance dates evaluated",
		},
	)
	r.warningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rotation_rebalance_warnings_total",
			Help: "Rebalance dates degraded by a per-date anomaly",
		},
		[]string{"code"},
	)
	r.panelCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rotation_panel_cache_lookups_total",
			Help: "Panel cache lookups by result",
		},
		[]string{"panel", "result"},
	)

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.rebalancesTotal)
	reg.MustRegister(r.warningsTotal)
	reg.MustRegister(r.panelCacheTotal)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(status, direction string, duration float64) {
	r.backtestsTotal.WithLabelValues(status, direction).Inc()
	r.backtestDuration.Observe(duration)
}

// RecordRebalances adds evaluated rebalance dates.
func (r *Registry) RecordRebalances(n int) {
	r.rebalancesTotal.Add(float64(n))
}

// RecordWarning counts a degraded rebalance date.
func (r *Registry) RecordWarning(code string) {
	r.warningsTotal.WithLabelValues(code).Inc()
}

// CacheHit records a panel served from cache.
func (r *Registry) CacheHit(panel string) {
	r.panelCacheTotal.WithLabelValues(panel, "hit").Inc()
}

// CacheMiss records a panel decoded from storage.
func (r *Registry) CacheMiss(panel string) {
	r.panelCacheTotal.WithLabelValues(panel, "miss").Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
