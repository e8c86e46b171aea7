package domainerrors

import (
	"context"
	"errors"

	"credverify/pkg/platform/sentinel"
)

// Code represents a domain error category independent of transport layer.
// Codes describe what went wrong in ledger and workflow terms, not HTTP terms.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeMalformed          Code = "malformed"
	CodeConflict           Code = "conflict"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeInvariantViolation Code = "invariant_violation"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and ledger layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// FromSentinel translates infrastructure sentinels into domain errors exactly once.
// Domain errors pass through untouched; anything unrecognised becomes CodeInternal.
func FromSentinel(err error, msg string) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return &Error{Code: CodeNotFound, Message: msg, Err: err}
	case errors.Is(err, sentinel.ErrMalformed):
		return &Error{Code: CodeMalformed, Message: msg, Err: err}
	case errors.Is(err, sentinel.ErrConflict):
		return &Error{Code: CodeConflict, Message: msg, Err: err}
	case errors.Is(err, sentinel.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return &Error{Code: CodeTimeout, Message: msg, Err: err}
	default:
		return &Error{Code: CodeInternal, Message: msg, Err: err}
	}
}
