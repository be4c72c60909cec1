package validation

// Result holds either a value or a non-empty list of failures.
type Result[T any] struct {
	value T
	errs  Errors
}

// OK wraps a valid value.
func OK[T any](v T) Result[T] { return Result[T]{value: v} }

// Fail wraps failures. It panics when errs is empty, since a failed result
// without a reason cannot be reported.
func Fail[T any](errs ...*Error) Result[T] {
	if len(errs) == 0 {
		panic("validation: Fail without errors")
	}
	return Result[T]{errs: append(Errors(nil), errs...)}
}

// Valid reports whether r holds a value.
func (r Result[T]) Valid() bool { return len(r.errs) == 0 }

// Value returns the value; it is the zero value when r failed.
func (r Result[T]) Value() T { return r.value }

// Errors returns the failures, nil when r is valid.
func (r Result[T]) Errors() Errors { return r.errs }

// Unwrap converts r to the usual (value, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	if len(r.errs) > 0 {
		var zero T
		return zero, r.errs
	}
	return r.value, nil
}

// Map applies f to a valid value.
func Map[A, B any](r Result[A], f func(A) B) Result[B] {
	if !r.Valid() {
		return Result[B]{errs: r.errs}
	}
	return OK(f(r.value))
}

// Zip2 combines two independent results. Both sides are always evaluated by
// the caller; when both failed, both sets of failures are kept.
func Zip2[A, B, C any](a Result[A], b Result[B], f func(A, B) C) Result[C] {
	if a.Valid() && b.Valid() {
		return OK(f(a.value, b.value))
	}
	var errs Errors
	errs = append(errs, a.errs...)
	errs = append(errs, b.errs...)
	return Result[C]{errs: errs}
}

// Sequence turns a list of results into a result of a list: every value in
// order when all succeeded, otherwise the failures of every failed entry.
func Sequence[T any](rs []Result[T]) Result[[]T] {
	var errs Errors
	values := make([]T, 0, len(rs))
	for _, r := range rs {
		if !r.Valid() {
			errs = append(errs, r.errs...)
			continue
		}
		values = append(values, r.value)
	}
	if len(errs) > 0 {
		return Result[[]T]{errs: errs}
	}
	return OK(values)
}

// Collect keeps the valid values of rs and gathers every failure. Unlike
// Sequence it does not discard the values when something failed.
func Collect[T any](rs []Result[T]) ([]T, Errors) {
	var errs Errors
	var values []T
	for _, r := range rs {
		if !r.Valid() {
			errs = append(errs, r.errs...)
			continue
		}
		values = append(values, r.value)
	}
	return values, errs
}
