// Package foundation holds small generic types shared by the command layer.
package foundation

import "fmt"

// Result is the outcome of a command: a value of type T or an error of type E.
type Result[T any, E error] struct {
	value T
	err   E
	ok    bool
}

// Ok wraps a successful value.
func Ok[T any, E error](value T) Result[T, E] {
	return Result[T, E]{value: value, ok: true}
}

// Err wraps a failure.
func Err[T any, E error](err E) Result[T, E] {
	return Result[T, E]{err: err}
}

// IsOk reports whether the command succeeded.
func (r Result[T, E]) IsOk() bool { return r.ok }

// IsErr reports whether the command failed.
func (r Result[T, E]) IsErr() bool { return !r.ok }

// Unwrap returns the value. It panics on a failed Result.
func (r Result[T, E]) Unwrap() T {
	if !r.ok {
		panic(fmt.Sprintf("Unwrap on failed result: %v", r.err))
	}
	return r.value
}

// UnwrapErr returns the error. It panics on a successful Result.
func (r Result[T, E]) UnwrapErr() E {
	if r.ok {
		panic("UnwrapErr on successful result")
	}
	return r.err
}

// ToTuple converts r to the usual (value, error) pair.
func (r Result[T, E]) ToTuple() (T, E) {
	var (
		zeroVal T
		zeroErr E
	)
	if r.ok {
		return r.value, zeroErr
	}
	return zeroVal, r.err
}
