// Package outcome defines the tagged result type delivered by the repository
// layer and the classified failures it can carry.
package outcome

import (
	"errors"
	"fmt"
)

// Kind represents the classification of a failure.
type Kind string

const (
	// KindNetwork indicates a connectivity or transport I/O failure.
	KindNetwork Kind = "network"

	// KindAPI indicates the server answered with a non-2xx status, or with an
	// empty body on a 2xx status.
	KindAPI Kind = "api"

	// KindStorage indicates a local persistence read or write failure.
	KindStorage Kind = "storage"

	// KindCacheMiss indicates a fallback read found no persisted snapshot.
	KindCacheMiss Kind = "cache_miss"

	// KindUnknown covers anything uncategorized, including decoding failures.
	KindUnknown Kind = "unknown"
)

// Default messages used when a failure is created without one.
const (
	DefaultNetworkMessage   = "No internet connection"
	DefaultStorageMessage   = "Database error occurred"
	DefaultCacheMissMessage = "No cached data available"
	DefaultUnknownMessage   = "An unknown error occurred"
)

// Failure is a classified error with context.
type Failure struct {
	// Kind is the failure classification.
	Kind Kind `json:"kind"`

	// Message is the human-readable failure message.
	Message string `json:"message"`

	// StatusCode is the HTTP status for KindAPI failures, zero otherwise.
	StatusCode int `json:"status_code,omitempty"`

	// Resource names the resource being synchronized, if known.
	Resource string `json:"resource,omitempty"`

	// Err is the underlying cause.
	Err error `json:"-"`
}

// Sentinel values for errors.Is comparisons. Only the kind is compared.
var (
	ErrNetwork   = &Failure{Kind: KindNetwork}
	ErrAPI       = &Failure{Kind: KindAPI}
	ErrStorage   = &Failure{Kind: KindStorage}
	ErrCacheMiss = &Failure{Kind: KindCacheMiss}
	ErrUnknown   = &Failure{Kind: KindUnknown}
)

// Error implements the error interface.
func (f *Failure) Error() string {
	msg := f.Message
	if f.StatusCode != 0 {
		msg = fmt.Sprintf("HTTP %d: %s", f.StatusCode, msg)
	}
	if f.Resource != "" {
		msg = fmt.Sprintf("%s (resource=%s)", msg, f.Resource)
	}
	if f.Err != nil && f.Err.Error() != f.Message {
		return fmt.Sprintf("[%s] %s: %s", f.Kind, msg, f.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", f.Kind, msg)
}

// Unwrap returns the underlying error for error chain inspection.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Is reports whether target is a Failure of the same kind.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return f.Kind == t.Kind
}

// WithResource adds resource context to a failure.
func (f *Failure) WithResource(resource string) *Failure {
	f.Resource = resource
	return f
}

// NewNetworkFailure creates a connectivity failure.
func NewNetworkFailure(message string, err error) *Failure {
	if message == "" {
		message = DefaultNetworkMessage
	}
	return &Failure{Kind: KindNetwork, Message: message, Err: err}
}

// NewAPIFailure creates a failure for an unsuccessful HTTP exchange.
func NewAPIFailure(statusCode int, message string, err error) *Failure {
	return &Failure{Kind: KindAPI, Message: message, StatusCode: statusCode, Err: err}
}

// NewStorageFailure creates a persistence failure.
func NewStorageFailure(message string, err error) *Failure {
	if message == "" {
		message = DefaultStorageMessage
	}
	return &Failure{Kind: KindStorage, Message: message, Err: err}
}

// NewCacheMissFailure creates the failure reported when no snapshot exists.
func NewCacheMissFailure() *Failure {
	return &Failure{Kind: KindCacheMiss, Message: DefaultCacheMissMessage}
}

// NewUnknownFailure creates an uncategorized failure.
func NewUnknownFailure(message string, err error) *Failure {
	if message == "" {
		message = DefaultUnknownMessage
	}
	return &Failure{Kind: KindUnknown, Message: message, Err: err}
}

// AsFailure returns err as a *Failure, classifying anything else as unknown.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return NewUnknownFailure(fmt.Sprintf("%s: %v", DefaultUnknownMessage, err), err)
}

func kindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// IsNetwork returns true if the error is a network failure.
func IsNetwork(err error) bool { return kindOf(err) == KindNetwork }

// IsAPI returns true if the error is an API failure.
func IsAPI(err error) bool { return kindOf(err) == KindAPI }

// IsStorage returns true if the error is a storage failure.
func IsStorage(err error) bool { return kindOf(err) == KindStorage }

// IsCacheMiss returns true if the error is a cache miss.
func IsCacheMiss(err error) bool { return kindOf(err) == KindCacheMiss }

// IsUnknown returns true if the error is an uncategorized failure.
func IsUnknown(err error) bool { return kindOf(err) == KindUnknown }

// Recoverable returns true if the failure should trigger the cache fallback.
// Only network and API failures are recoverable.
func Recoverable(err error) bool {
	return IsNetwork(err) || IsAPI(err)
}
