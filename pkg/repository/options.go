package repository

import (
	"time"

	"github.com/rocketscience/rocketscience/pkg/telemetry"
)

// Option customizes a Repository.
type Option func(*Repository)

// WithFollow controls whether a recovered request keeps forwarding cache
// snapshots written after the first one. Defaults to true.
func WithFollow(follow bool) Option {
	return func(r *Repository) { r.follow = follow }
}

// WithCoalescing lets concurrent requests for the same resource share one
// in-flight fetch. Defaults to false.
func WithCoalescing(enabled bool) Option {
	return func(r *Repository) { r.coalesce = enabled }
}

// WithPersistTimeout bounds each write-through. Zero means no extra bound.
func WithPersistTimeout(d time.Duration) Option {
	return func(r *Repository) { r.persistTimeout = d }
}

// WithPersistErrorHook registers a callback for failed write-throughs.
func WithPersistErrorHook(hook func(resource string, err error)) Option {
	return func(r *Repository) { r.onPersistError = hook }
}

// WithLogger sets the logger.
func WithLogger(l *telemetry.Logger) Option {
	return func(r *Repository) { r.logger = l.NewComponentLogger("repository") }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *Repository) { r.metrics = m }
}

// WithTracer sets the tracer.
func WithTracer(t *telemetry.Tracer) Option {
	return func(r *Repository) { r.tracer = t }
}

// WithEvents sets the diagnostic event publisher.
func WithEvents(ep *telemetry.EventPublisher) Option {
	return func(r *Repository) { r.events = ep }
}

// WithTelemetry sets logger, metrics, tracer and events from one bundle.
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(r *Repository) {
		WithLogger(tel.Logger)(r)
		r.metrics = tel.Metrics
		r.tracer = tel.Tracer
		r.events = tel.Events
	}
}
