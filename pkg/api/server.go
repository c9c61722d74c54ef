package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rocketscience/rocketscience/pkg/dashboard"
	"github.com/rocketscience/rocketscience/pkg/spacex"
	"github.com/rocketscience/rocketscience/pkg/telemetry"
)

// Dashboard is the view model served by the API.
type Dashboard interface {
	Current() dashboard.State
	ApplyFilter(ctx context.Context, criteria spacex.FilterCriteria) error
	Refresh(ctx context.Context) error
}

// HealthChecker reports whether the store is usable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ServerOption configures the HTTP server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	middlewares []func(http.Handler) http.Handler
	logger      *telemetry.Logger
	metrics     *telemetry.Metrics
	baseCtx     context.Context
}

// WithMiddlewares adds middleware to the router.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithLogger sets the request logger.
func WithLogger(l *telemetry.Logger) ServerOption {
	return func(cfg *serverConfig) { cfg.logger = l }
}

// WithMetrics mounts the metrics handler on /metrics.
func WithMetrics(m *telemetry.Metrics) ServerOption {
	return func(cfg *serverConfig) { cfg.metrics = m }
}

// WithBaseContext sets the context background work started by a request runs
// under. It should live as long as the server.
func WithBaseContext(ctx context.Context) ServerOption {
	return func(cfg *serverConfig) { cfg.baseCtx = ctx }
}

// NewServer builds the router.
func NewServer(vm Dashboard, health HealthChecker, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		logger:  telemetry.NopLogger(),
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(cfg.logger))
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	routes := &Routes{
		dashboard: vm,
		health:    health,
		logger:    cfg.logger.NewComponentLogger("api"),
		baseCtx:   cfg.baseCtx,
	}

	r.Get("/healthz", routes.healthz)
	if cfg.metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metrics.Handler())
	}
	r.Mount("/v1", routes.Router())

	return r
}

// LoggingMiddleware logs every request at debug level.
func LoggingMiddleware(logger *telemetry.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.WithFields(map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Debug("http request")
		})
	}
}
