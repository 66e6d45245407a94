// Package serrors provides semantic error kinds used across the enrichment
// pipeline. A kind tells callers what went wrong (the provider rejected the
// key, the body could not be decoded, the run was interrupted) without having
// to inspect concrete error types.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a marker interface implemented by all semantic error kinds created
// with NewKind. It allows distinguishing semantic kinds from ordinary errors.
type Kind interface {
	error
	isKind()
}

type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a new semantic error kind (a sentinel) with the provided
// name. Kinds are comparable and can be used with errors.Is/As through the
// serrors.Error wrapper.
func NewKind(name string) Kind { return kind{s: name} }

var (
	// ErrBadRequest indicates the provider refused the request payload.
	ErrBadRequest = NewKind("BAD_REQUEST")
	// ErrUnauthorized indicates a missing or rejected API key.
	ErrUnauthorized = NewKind("UNAUTHORIZED")
	// ErrRateLimited indicates the provider answered with too many requests.
	ErrRateLimited = NewKind("RATE_LIMITED")
	// ErrUnavailable indicates the provider answered with a server error or
	// could not be reached.
	ErrUnavailable = NewKind("UNAVAILABLE")
	// ErrTimeout indicates a single attempt exceeded its deadline.
	ErrTimeout = NewKind("TIMEOUT")
	// ErrInvalidResponse indicates the provider body could not be decoded.
	ErrInvalidResponse = NewKind("INVALID_RESPONSE")
	// ErrInvalidInput indicates the domain list file is malformed.
	ErrInvalidInput = NewKind("INVALID_INPUT")
	// ErrCancelled indicates the run was interrupted.
	ErrCancelled = NewKind("CANCELLED")
	// ErrInternal indicates an unexpected local failure.
	ErrInternal = NewKind("INTERNAL")
)

// Error represents a semantic error carrying a kind (sentinel), an optional
// wrapped error and an optional message. It supports errors.Is/errors.As and
// unwrapping.
//
// Error string formatting:
//   - If both msg and err are set: "<msg>: <err>"
//   - If only msg is set: "<msg>"
//   - If only err is set: "<err>"
//   - If neither set: the kind's Error() string.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With constructs a new semantic error with the given kind and message.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap constructs a new semantic error with the given kind wrapping err.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// KindOnly creates a semantic error carrying only the kind.
func KindOnly(k Kind) *Error { return &Error{kind: k} }

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	default:
		if e.kind != nil {
			return e.kind.Error()
		}

		return "unknown error"
	}
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error { return e.err }

// Is matches against either the kind sentinel or the wrapped error.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}
	if e.err != nil && errors.Is(e.err, target) {
		return true
	}

	return false
}

// As enables type assertions against either the kind sentinel or the wrapped
// error in the chain.
func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}
	if e.kind != nil && errors.As(e.kind, target) {
		return true
	}
	if e.err != nil && errors.As(e.err, target) {
		return true
	}

	return false
}

// Kind returns the kind sentinel associated with this error, or nil.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the message attached to this error.
func (e *Error) Message() string { return e.msg }

// Cause returns the wrapped cause (may be nil).
func (e *Error) Cause() error { return e.err }

// KindOf returns the first kind found in err's chain, or nil when err carries
// no semantic kind.
func KindOf(err error) Kind {
	var k Kind
	if errors.As(err, &k) {
		return k
	}

	return nil
}

// IsRetryable reports whether a request that failed with err may succeed on a
// later attempt. Cancellation and local input errors are final; every
// provider-side failure, including unknown transport errors, is retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCancelled) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInternal) {
		return false
	}

	return true
}
