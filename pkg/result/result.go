// Package result carries the outcome of an upstream call as a value, so the
// caller decides how a failure is recovered instead of a panic or a silently
// swallowed error deciding it.
package result

import "agentdesk/pkg/errors"

// Result is either Ok(value) or Err(*errors.AppError). The zero value is an
// Ok holding the zero T.
type Result[T any] struct {
	value T
	err   *errors.AppError
}

func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err builds a failed result. A nil failure is promoted to an internal error
// so that an Err can never be mistaken for an Ok.
func Err[T any](failure *errors.AppError) Result[T] {
	if failure == nil {
		failure = errors.NewInternalError("unspecified failure")
	}
	return Result[T]{err: failure}
}

func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Value returns the held value; it is the zero T for a failed result.
func (r Result[T]) Value() T {
	return r.value
}

// Failure returns the error of a failed result, nil otherwise.
func (r Result[T]) Failure() *errors.AppError {
	return r.err
}

// Kind returns the failure code, or "" for Ok.
func (r Result[T]) Kind() errors.ErrorCode {
	if r.err == nil {
		return ""
	}
	return r.err.Code
}

// Unwrap converts the result into Go's (value, error) pair. The error is an
// untyped nil on success.
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		return r.value, r.err
	}
	return r.value, nil
}

// Map transforms the value of an Ok result and passes failures through.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if !r.IsOk() {
		return Err[U](r.err)
	}
	return Ok(fn(r.value))
}
