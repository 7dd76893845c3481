// Package apperr defines the coded errors shared by the service and API layers.
// Stores return wrapped stdlib errors for infrastructure failures; business
// rules surface as an *Error carrying a stable machine-readable code so that
// handlers can map them to HTTP statuses without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies an error class. Codes are part of the API contract and
// must stay stable across releases.
type Code string

const (
	CodeUnauthenticated         Code = "unauthenticated"
	CodeUnauthorized            Code = "unauthorized"
	CodeNotFound                Code = "not_found"
	CodeInvalidTransition       Code = "invalid_transition"
	CodeTransferFinalized       Code = "transfer_finalized"
	CodeProfileIncomplete       Code = "profile_incomplete"
	CodeDuplicateActiveTransfer Code = "duplicate_active_transfer"
	CodeValidation              Code = "validation"
	CodeStorage                 Code = "storage"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error with a message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a coded error around an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the code from an error, or CodeStorage for anything that
// is not a coded error (unknown failures are treated as infrastructure).
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStorage
}

// MessageOf extracts the human-readable message from an error. Unknown
// failures get a generic message so internals never leak to callers.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
