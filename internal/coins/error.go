// Copyright (c) 2025 The hodlinator developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coins

import "fmt"

// AssertError identifies an error that indicates an internal code
// consistency issue and should be treated as a critical and unrecoverable
// error.
type AssertError string

// Error returns the assertion error as a human-readable string and
// satisfies the error interface.
func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}

// ErrorKind identifies a kind of error. It has full support for errors.Is
// and errors.As, so the caller can directly check against an error kind
// when determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific ErrorKind.
const (
	// ErrInvariantViolated indicates the caller broke a contract this
	// package relies on to keep its bookkeeping correct: adding a coin
	// over an unspent one without asserting an overwrite, or a FRESH flag
	// that reached BatchWrite while the receiving entry holds spendable
	// outputs.
	ErrInvariantViolated = ErrorKind("ErrInvariantViolated")

	// ErrBestBlockUnset indicates a Flush or Sync was attempted while the
	// view's best block is still the zero hash.
	ErrBestBlockUnset = ErrorKind("ErrBestBlockUnset")

	// ErrBaseWriteFailed indicates the parent's BatchWrite returned an
	// error while propagating a flush or sync. The child's state after
	// this error is unspecified and must not be reused.
	ErrBaseWriteFailed = ErrorKind("ErrBaseWriteFailed")

	// ErrUtxoBackendNotOpen indicates an operation was attempted against a
	// backend that has already been closed, or was never opened.
	ErrUtxoBackendNotOpen = ErrorKind("ErrUtxoBackendNotOpen")

	// ErrUtxoBackendCorruption indicates the persistent backend returned
	// data that could not be decoded as a valid coin record.
	ErrUtxoBackendCorruption = ErrorKind("ErrUtxoBackendCorruption")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// ContextError wraps an error with additional context. It has full support
// for errors.Is and errors.As, so the caller can ascertain the specific
// wrapped error kind.
type ContextError struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e ContextError) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e ContextError) Unwrap() error {
	return e.Err
}

// contextError creates a ContextError given a kind and a format string.
func contextError(kind ErrorKind, format string, args ...interface{}) ContextError {
	return ContextError{Err: kind, Description: fmt.Sprintf(format, args...)}
}
