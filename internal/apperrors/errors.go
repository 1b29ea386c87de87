package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers and the transport layer
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindForbidden  Kind = "forbidden"
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindTransient  Kind = "transient"
	KindInternal   Kind = "internal"
)

// Error is the error type returned by every core operation
type Error struct {
	Kind    Kind
	Message string
	Field   string
	cause   error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Field != "" {
		msg += " (field " + e.Field + ")"
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches another *Error of the same kind, so errors.Is(err, apperrors.ErrNotFound) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Field == "" && t.cause == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons by kind
var (
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrForbidden  = &Error{Kind: KindForbidden}
	ErrValidation = &Error{Kind: KindValidation}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrTransient  = &Error{Kind: KindTransient}
	ErrInternal   = &Error{Kind: KindInternal}
)

// NotFound reports a missing entity
func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// Forbidden reports a policy refusal
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Validation reports malformed input on a field
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// Conflict reports a uniqueness violation
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Transient wraps a retryable store failure
func Transient(cause error) *Error {
	return &Error{Kind: KindTransient, Message: "store temporarily unavailable", cause: cause}
}

// Internal wraps an unexpected failure
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, cause: cause}
}

// KindOf returns the kind of err, or KindInternal for foreign errors
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
