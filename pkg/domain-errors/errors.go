// Package domainerrors defines coded errors that cross the service boundary.
// Services translate store sentinels and validation failures into these;
// the HTTP layer translates codes into status codes. Nothing above the store
// ever inspects a storage-engine error code.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and callers.
type Code string

const (
	// CodeValidation marks missing or malformed input. Never retried.
	CodeValidation Code = "validation_error"
	// CodeBadRequest marks a structurally broken request (bad JSON, bad ID).
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks an absent target or one in the wrong state for the
	// requested transition.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a uniqueness violation surfaced as a domain fact,
	// e.g. a duplicate mission claim.
	CodeConflict Code = "conflict"
	// CodeInternal marks unexpected infrastructure failure.
	CodeInternal Code = "internal_error"
)

// Error carries a code plus a caller-actionable message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// MessageOf returns the domain message when err is a domain error, otherwise
// a generic fallback so internal details never leak to clients.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// CodeOf returns the code carried by err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
