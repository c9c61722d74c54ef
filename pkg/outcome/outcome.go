package outcome

// Outcome is either a successful value or a Failure. The zero value is a
// success carrying the zero T.
type Outcome[T any] struct {
	Value   T
	Failure *Failure
}

// Success wraps a value.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

// Fail wraps a failure.
func Fail[T any](f *Failure) Outcome[T] {
	return Outcome[T]{Failure: f}
}

// OK reports whether the outcome is a success.
func (o Outcome[T]) OK() bool {
	return o.Failure == nil
}

// Kind returns the failure kind, or the empty string for a success.
func (o Outcome[T]) Kind() Kind {
	if o.Failure == nil {
		return ""
	}
	return o.Failure.Kind
}

// Get returns the value and the failure as an error.
func (o Outcome[T]) Get() (T, error) {
	if o.Failure != nil {
		var zero T
		return zero, o.Failure
	}
	return o.Value, nil
}

// Map applies fn to a successful value. Failures pass through unchanged, and
// an error from fn becomes an unknown failure.
func Map[T, U any](o Outcome[T], fn func(T) (U, error)) Outcome[U] {
	if o.Failure != nil {
		return Fail[U](o.Failure)
	}
	v, err := fn(o.Value)
	if err != nil {
		return Fail[U](AsFailure(err))
	}
	return Success(v)
}
