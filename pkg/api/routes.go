package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscience/rocketscience/pkg/spacex"
	"github.com/rocketscience/rocketscience/pkg/telemetry"
)

const (
	maxBodyBytes  = 1 << 20
	healthTimeout = 2 * time.Second
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AcceptedResponse acknowledges work started in the background.
type AcceptedResponse struct {
	Status string `json:"status"`
}

// Routes holds the handlers.
type Routes struct {
	dashboard Dashboard
	health    HealthChecker
	logger    *telemetry.Logger
	baseCtx   context.Context
}

// Router returns the /v1 routes.
func (rr *Routes) Router() http.Handler {
	r := chi.NewRouter()
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", rr.getDashboard)
		r.Post("/filter", rr.applyFilter)
		r.Post("/refresh", rr.refresh)
	})
	return r
}

func (rr *Routes) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := rr.health.HealthCheck(ctx); err != nil {
		rr.logger.WithError(err).Warn("health check failed")
		rr.writeError(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	rr.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rr *Routes) getDashboard(w http.ResponseWriter, _ *http.Request) {
	rr.writeJSON(w, http.StatusOK, rr.dashboard.Current())
}

func (rr *Routes) applyFilter(w http.ResponseWriter, r *http.Request) {
	var criteria spacex.FilterCriteria

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&criteria); err != nil {
		rr.writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := criteria.Validate(); err != nil {
		rr.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rr.background("apply filter", func(ctx context.Context) error {
		return rr.dashboard.ApplyFilter(ctx, criteria)
	})
	rr.writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"})
}

func (rr *Routes) refresh(w http.ResponseWriter, _ *http.Request) {
	rr.background("refresh", rr.dashboard.Refresh)
	rr.writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"})
}

// background runs fn outside the request, bounded by the server context.
func (rr *Routes) background(name string, fn func(context.Context) error) {
	go func() {
		if err := fn(rr.baseCtx); err != nil && !errors.Is(err, context.Canceled) {
			rr.logger.WithError(err).Warnf("%s failed", name)
		}
	}()
}

func (rr *Routes) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rr.logger.WithError(err).Error("failed to encode response")
	}
}

func (rr *Routes) writeError(w http.ResponseWriter, message string, status int) {
	rr.writeJSON(w, status, ErrorResponse{Error: message})
}
