package grading

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure so callers can map it to a user-facing outcome.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindDeadlinePassed    Kind = "deadline_passed"
	KindAttemptsExhausted Kind = "attempts_exhausted"
	KindValidationFailed  Kind = "validation_failed"
	KindConflict          Kind = "conflict"
	KindUnavailable       Kind = "unavailable"
)

// Error is the structured failure returned by every engine operation.
type Error struct {
	Kind    Kind
	Message string
	Field   string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrConflict) works on
// wrapped and message-bearing values alike.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrDeadlinePassed    = &Error{Kind: KindDeadlinePassed}
	ErrAttemptsExhausted = &Error{Kind: KindAttemptsExhausted}
	ErrValidationFailed  = &Error{Kind: KindValidationFailed}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrUnavailable       = &Error{Kind: KindUnavailable}
)

// NewError builds a kind-tagged error with a formatted message.
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// FieldError builds a validation failure bound to a request field.
func FieldError(field, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidationFailed, Field: field, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the taxonomy kind from err. Errors outside the taxonomy return "".
func KindOf(err error) Kind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return ""
}

// FieldOf returns the request field a validation failure refers to, if any.
func FieldOf(err error) string {
	var target *Error
	if errors.As(err, &target) {
		return target.Field
	}
	return ""
}
