// Package apperr defines the error taxonomy shared by the core, the application
// services and the transport adapters.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error. Kinds are string-based so they serialize naturally
// into API responses and log lines.
type Kind string

const (
	// KindValidation indicates malformed or ambiguous input.
	KindValidation Kind = "VALIDATION_ERROR"

	// KindNotFound indicates a referenced entity does not exist.
	KindNotFound Kind = "NOT_FOUND"

	// KindUnauthorized indicates missing or invalid credentials.
	KindUnauthorized Kind = "UNAUTHORIZED"

	// KindForbidden indicates the acting user lacks the required capability.
	KindForbidden Kind = "FORBIDDEN"

	// KindInvalidState indicates the operation is not legal in the current state.
	KindInvalidState Kind = "INVALID_STATE"

	// KindStore indicates the underlying persistence failed.
	KindStore Kind = "STORE_ERROR"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation returns a KindValidation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden returns a KindForbidden error.
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized returns a KindUnauthorized error.
func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// InvalidState returns a KindInvalidState error.
func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// Store wraps a persistence failure raised while running op.
func Store(op string, err error) *Error {
	return &Error{Kind: KindStore, Op: op, Message: "store failure", Err: err}
}

// KindOf returns the kind of err, or KindStore for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStore
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// Detail returns the human-readable part of err without the op prefix.
func Detail(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.Kind == KindStore {
			return "internal store error"
		}
		return appErr.Message
	}
	return err.Error()
}
