package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/rocketscience/rocketscience/pkg/dashboard"
	"github.com/rocketscience/rocketscience/pkg/spacex"
	"github.com/rocketscience/rocketscience/pkg/telemetry"
)

type fakeDashboard struct {
	state     dashboard.State
	filters   chan spacex.FilterCriteria
	refreshes chan struct{}
}

func newFakeDashboard() *fakeDashboard {
	return &fakeDashboard{
		filters:   make(chan spacex.FilterCriteria, 1),
		refreshes: make(chan struct{}, 1),
	}
}

func (f *fakeDashboard) Current() dashboard.State { return f.state }

func (f *fakeDashboard) ApplyFilter(_ context.Context, c spacex.FilterCriteria) error {
	f.filters <- c
	return nil
}

func (f *fakeDashboard) Refresh(context.Context) error {
	f.refreshes <- struct{}{}
	return nil
}

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(context.Context) error { return f.err }

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "healthy", want: http.StatusOK},
		{name: "unhealthy", err: errors.New("database is closed"), want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(newFakeDashboard(), fakeHealth{err: tt.err})
			rec := do(t, srv, http.MethodGet, "/healthz", "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestGetDashboard(t *testing.T) {
	vm := newFakeDashboard()
	vm.state = dashboard.State{
		UI:       dashboard.StateError,
		Error:    dashboard.CacheMissMessage,
		Launches: []spacex.Launch{},
	}
	srv := NewServer(vm, fakeHealth{})

	rec := do(t, srv, http.MethodGet, "/v1/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]interface{}{
		"state":    "error",
		"error":    dashboard.CacheMissMessage,
		"company":  nil,
		"launches": []interface{}{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyFilter(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		want     *spacex.FilterCriteria
	}{
		{
			name:     "valid",
			body:     `{"years":["2008"],"descending":true}`,
			wantCode: http.StatusAccepted,
			want:     &spacex.FilterCriteria{Years: []string{"2008"}, Descending: true},
		},
		{name: "malformed json", body: `{"years":`, wantCode: http.StatusBadRequest},
		{name: "unknown field", body: `{"year":"2008"}`, wantCode: http.StatusBadRequest},
		{name: "bad year", body: `{"years":["20x8"]}`, wantCode: http.StatusBadRequest},
		{name: "year too early", body: `{"years":["1999"]}`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newFakeDashboard()
			srv := NewServer(vm, fakeHealth{})

			rec := do(t, srv, http.MethodPost, "/v1/dashboard/filter", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.wantCode, rec.Body)
			}
			if tt.want == nil {
				return
			}

			select {
			case got := <-vm.filters:
				if diff := cmp.Diff(*tt.want, got); diff != "" {
					t.Errorf("criteria mismatch (-want +got):\n%s", diff)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("filter was not applied")
			}
		})
	}
}

func TestRefresh(t *testing.T) {
	vm := newFakeDashboard()
	srv := NewServer(vm, fakeHealth{})

	rec := do(t, srv, http.MethodPost, "/v1/dashboard/refresh", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	select {
	case <-vm.refreshes:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh was not started")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics, err := telemetry.NewMetrics(telemetry.MetricsConfig{Enabled: true, Namespace: "test"})
	if err != nil {
		t.Fatal(err)
	}
	metrics.RecordFetch(spacex.ResourceLaunches, telemetry.ResultSuccess, 10*time.Millisecond)

	srv := NewServer(newFakeDashboard(), fakeHealth{}, WithMetrics(metrics))
	rec := do(t, srv, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_fetch_total") {
		t.Errorf("metrics output lacks test_fetch_total:\n%s", rec.Body)
	}

	// Without metrics the route is not mounted.
	rec = do(t, NewServer(newFakeDashboard(), fakeHealth{}), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status without metrics = %d, want 404", rec.Code)
	}
}
