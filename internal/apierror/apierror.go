package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP layer
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
	KindDependency
)

// Status returns the HTTP status code for the kind
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	case KindDependency:
		return "dependency"
	default:
		return "internal"
	}
}

// Error is an error with a client-facing message. Cause is logged, never sent.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Status returns the HTTP status code of the error
func (e *Error) Status() int {
	return e.Kind.Status()
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed or missing input
func Validation(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

// Unauthorized reports a missing or invalid credential
func Unauthorized(format string, args ...interface{}) *Error {
	return newError(KindUnauthorized, format, args...)
}

// Forbidden reports an authenticated caller acting on something they do not own
func Forbidden(format string, args ...interface{}) *Error {
	return newError(KindForbidden, format, args...)
}

// NotFound reports a missing entity
func NotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

// Conflict reports a uniqueness violation
func Conflict(format string, args ...interface{}) *Error {
	return newError(KindConflict, format, args...)
}

// RateLimited reports a throttled caller
func RateLimited(format string, args ...interface{}) *Error {
	return newError(KindRateLimited, format, args...)
}

// Dependency reports a failure of the database, object storage or another collaborator
func Dependency(cause error, format string, args ...interface{}) *Error {
	e := newError(KindDependency, format, args...)
	e.Cause = cause
	return e
}

// Internal wraps an unexpected failure
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "Something went wrong", Cause: cause}
}

// From extracts an *Error from err's chain, classifying anything else as internal
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal(err)
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
