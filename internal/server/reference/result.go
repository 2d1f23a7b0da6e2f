package reference

// Result is the outcome of a reference service call: either a value or the
// reason the service was unavailable. Callers that only need data use
// OrEmpty.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] { return Result[T]{value: v} }

// Unavailable records why the call produced nothing.
func Unavailable[T any](err error) Result[T] { return Result[T]{err: err} }

// IsOk reports whether the call succeeded.
func (r Result[T]) IsOk() bool { return r.err == nil }

// Get returns the value and whether the call succeeded.
func (r Result[T]) Get() (T, bool) { return r.value, r.err == nil }

// Err returns the unavailability reason, or nil.
func (r Result[T]) Err() error { return r.err }

// OrEmpty returns the value, or the zero value when unavailable.
func (r Result[T]) OrEmpty() T { return r.value }
