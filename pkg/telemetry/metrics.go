package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values shared by the sync metrics.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultMiss    = "miss"
)

// Metrics provides Prometheus metrics for the sync layer. A disabled Metrics
// value accepts every call and records nothing.
type Metrics struct {
	config MetricsConfig

	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec

	fallbackTotal    *prometheus.CounterVec
	storeWritesTotal *prometheus.CounterVec
	emissionsTotal   *prometheus.CounterVec

	inflightRequests prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_total",
				Help:      "Total number of remote fetches by resource and failure kind",
			},
			[]string{"resource", "result"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of remote fetches in seconds",
				Buckets:   buckets,
			},
			[]string{"resource"},
		),
		fallbackTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallback_total",
				Help:      "Total number of cache fallbacks after a failed fetch",
			},
			[]string{"resource", "result"},
		),
		storeWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_writes_total",
				Help:      "Total number of local store write-throughs",
			},
			[]string{"resource", "result"},
		),
		emissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "emissions_total",
				Help:      "Total number of outcomes emitted to subscribers",
			},
			[]string{"resource", "kind"},
		),
		inflightRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "inflight_requests",
				Help:      "Number of sync requests currently running",
			},
		),
	}

	registry.MustRegister(
		m.fetchTotal,
		m.fetchDuration,
		m.fallbackTotal,
		m.storeWritesTotal,
		m.emissionsTotal,
		m.inflightRequests,
		collectors.NewGoCollector(),
	)

	return m, nil
}

// RecordFetch records a remote fetch. result is "success" or a failure kind.
func (m *Metrics) RecordFetch(resource, result string, duration time.Duration) {
	if m == nil || m.fetchTotal == nil {
		return
	}
	m.fetchTotal.WithLabelValues(resource, result).Inc()
	m.fetchDuration.WithLabelValues(resource).Observe(duration.Seconds())
}

// RecordFallback records the result of a cache read after a failed fetch.
func (m *Metrics) RecordFallback(resource, result string) {
	if m == nil || m.fallbackTotal == nil {
		return
	}
	m.fallbackTotal.WithLabelValues(resource, result).Inc()
}

// RecordStoreWrite records a write-through to the local store.
func (m *Metrics) RecordStoreWrite(resource, result string) {
	if m == nil || m.storeWritesTotal == nil {
		return
	}
	m.storeWritesTotal.WithLabelValues(resource, result).Inc()
}

// RecordEmission records an outcome handed to a subscriber. kind is "success"
// or a failure kind.
func (m *Metrics) RecordEmission(resource, kind string) {
	if m == nil || m.emissionsTotal == nil {
		return
	}
	m.emissionsTotal.WithLabelValues(resource, kind).Inc()
}

// TrackInflight increments the in-flight gauge and returns a func that
// decrements it.
func (m *Metrics) TrackInflight() func() {
	if m == nil || m.inflightRequests == nil {
		return func() {}
	}
	m.inflightRequests.Inc()
	return m.inflightRequests.Dec
}

// Registry returns the private registry, or nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Timer measures operation duration.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer starting now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
