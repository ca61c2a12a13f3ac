// Package apperr classifies failures into the small set of kinds callers
// translate into responses: not found, conflict, invalid argument,
// unauthorized, forbidden and upstream.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the class of a failure.
type Kind uint8

const (
	KindUpstream Kind = iota
	KindNotFound
	KindConflict
	KindInvalidArgument
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "upstream"
	}
}

// Error carries a Kind, a human-readable detail and the underlying cause.
// The cause is usually a package-level sentinel so callers can match it
// with errors.Is.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "" && e.Err != nil:
		return e.Detail + ": " + e.Err.Error()
	case e.Detail != "":
		return e.Detail
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: cause}
}

// NotFound wraps cause as a not-found failure.
func NotFound(cause error, format string, args ...any) error {
	return newf(KindNotFound, cause, format, args...)
}

// Conflict wraps cause as a conflict with existing state.
func Conflict(cause error, format string, args ...any) error {
	return newf(KindConflict, cause, format, args...)
}

// Invalid wraps cause as a rejected argument.
func Invalid(cause error, format string, args ...any) error {
	return newf(KindInvalidArgument, cause, format, args...)
}

// Unauthorized wraps cause as a missing or expired identity.
func Unauthorized(cause error, format string, args ...any) error {
	return newf(KindUnauthorized, cause, format, args...)
}

// Forbidden wraps cause as an identity lacking a capability.
func Forbidden(cause error, format string, args ...any) error {
	return newf(KindForbidden, cause, format, args...)
}

// KindOf reports the kind of err. Errors that were never classified are
// upstream failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// Detail returns the human-readable detail of a classified error, or a
// generic message for anything else so internal failures never leak.
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return "internal error"
}
