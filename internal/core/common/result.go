package common

// Result holds either a value or the error that prevented producing it.
// LLM-backed steps return a Result so callers pick an explicit fallback
// instead of inspecting ad hoc errors.
type Result[T any] struct {
	value T
	err   error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

func (r Result[T]) IsOk() bool { return r.err == nil }

func (r Result[T]) Error() error { return r.err }

func (r Result[T]) Unwrap() (T, error) { return r.value, r.err }

// OrElse returns the value, or fallback when the result is an error.
func (r Result[T]) OrElse(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}
