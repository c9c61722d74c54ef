package outcome

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestFailureClassification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		network     bool
		api         bool
		storage     bool
		cacheMiss   bool
		unknown     bool
		recoverable bool
	}{
		{
			name:        "network",
			err:         NewNetworkFailure("", io.ErrUnexpectedEOF),
			network:     true,
			recoverable: true,
		},
		{
			name:        "api",
			err:         NewAPIFailure(503, "Service Unavailable", nil),
			api:         true,
			recoverable: true,
		},
		{
			name:    "storage",
			err:     NewStorageFailure("", errors.New("disk I/O error")),
			storage: true,
		},
		{
			name:      "cache miss",
			err:       NewCacheMissFailure(),
			cacheMiss: true,
		},
		{
			name:    "unknown",
			err:     NewUnknownFailure("", nil),
			unknown: true,
		},
		{
			name:        "wrapped network",
			err:         fmt.Errorf("loading launches: %w", NewNetworkFailure("dial tcp: refused", nil)),
			network:     true,
			recoverable: true,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNetwork(tt.err); got != tt.network {
				t.Errorf("IsNetwork() = %v, want %v", got, tt.network)
			}
			if got := IsAPI(tt.err); got != tt.api {
				t.Errorf("IsAPI() = %v, want %v", got, tt.api)
			}
			if got := IsStorage(tt.err); got != tt.storage {
				t.Errorf("IsStorage() = %v, want %v", got, tt.storage)
			}
			if got := IsCacheMiss(tt.err); got != tt.cacheMiss {
				t.Errorf("IsCacheMiss() = %v, want %v", got, tt.cacheMiss)
			}
			if got := IsUnknown(tt.err); got != tt.unknown {
				t.Errorf("IsUnknown() = %v, want %v", got, tt.unknown)
			}
			if got := Recoverable(tt.err); got != tt.recoverable {
				t.Errorf("Recoverable() = %v, want %v", got, tt.recoverable)
			}
		})
	}
}

func TestFailureIs(t *testing.T) {
	err := fmt.Errorf("fallback: %w", NewCacheMissFailure())
	if !errors.Is(err, ErrCacheMiss) {
		t.Error("expected errors.Is to match ErrCacheMiss")
	}
	if errors.Is(err, ErrStorage) {
		t.Error("expected errors.Is not to match ErrStorage")
	}

	cause := errors.New("connection reset by peer")
	f := NewNetworkFailure("", cause)
	if !errors.Is(f, cause) {
		t.Error("expected failure to unwrap to its cause")
	}
}

func TestFailureError(t *testing.T) {
	tests := []struct {
		name    string
		failure *Failure
		want    []string
	}{
		{
			name:    "api with status",
			failure: NewAPIFailure(404, "Not Found", nil),
			want:    []string{"[api]", "HTTP 404", "Not Found"},
		},
		{
			name:    "network default message with cause",
			failure: NewNetworkFailure("", errors.New("dial tcp 10.0.0.1:443: i/o timeout")),
			want:    []string{"[network]", DefaultNetworkMessage, "i/o timeout"},
		},
		{
			name:    "resource context",
			failure: NewCacheMissFailure().WithResource("launches"),
			want:    []string{"[cache_miss]", DefaultCacheMissMessage, "resource=launches"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.failure.Error()
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Error() = %q, expected to contain %q", got, w)
				}
			}
		})
	}
}

func TestAsFailure(t *testing.T) {
	if AsFailure(nil) != nil {
		t.Error("expected nil for nil error")
	}

	orig := NewStorageFailure("write failed", nil)
	if got := AsFailure(fmt.Errorf("wrap: %w", orig)); got != orig {
		t.Errorf("expected the wrapped failure to be returned, got %v", got)
	}

	got := AsFailure(errors.New("strconv.Atoi: parsing \"abc\": invalid syntax"))
	if got.Kind != KindUnknown {
		t.Errorf("expected unknown kind, got %s", got.Kind)
	}
}

func TestOutcome(t *testing.T) {
	ok := Success(42)
	if !ok.OK() || ok.Kind() != "" {
		t.Fatalf("expected success, got %+v", ok)
	}
	v, err := ok.Get()
	if err != nil || v != 42 {
		t.Errorf("Get() = %d, %v", v, err)
	}

	failed := Fail[int](NewNetworkFailure("", nil))
	if failed.OK() {
		t.Fatal("expected failure")
	}
	if failed.Kind() != KindNetwork {
		t.Errorf("Kind() = %s, want %s", failed.Kind(), KindNetwork)
	}
	if _, err := failed.Get(); !IsNetwork(err) {
		t.Errorf("Get() error = %v, want network failure", err)
	}
}

func TestMap(t *testing.T) {
	double := func(v int) (int, error) { return v * 2, nil }
	broken := func(int) (int, error) { return 0, errors.New("transform failed") }

	if got := Map(Success(4), double); !got.OK() || got.Value != 8 {
		t.Errorf("Map(success) = %+v", got)
	}

	f := NewAPIFailure(500, "Internal Server Error", nil)
	if got := Map(Fail[int](f), double); got.Failure != f {
		t.Errorf("expected failure to pass through, got %+v", got)
	}

	if got := Map(Success(1), broken); got.Kind() != KindUnknown {
		t.Errorf("expected unknown failure from transform error, got %+v", got)
	}
}
