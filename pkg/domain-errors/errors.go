// Package domainerrors defines code-tagged errors shared by services and transports.
//
// Stores return sentinel infrastructure facts (see pkg/platform/sentinel); services
// translate them into a Code so handlers and callers can decide how to react
// without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers and transports.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_error"
	CodeInvariantViolation Code = "invariant_violation"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"

	// Resolution pipeline taxonomy.
	CodeInvalidEvent       Code = "invalid_event"
	CodeLookupUnavailable  Code = "lookup_unavailable"
	CodeResolutionConflict Code = "resolution_conflict"
	CodeTenantMismatch     Code = "tenant_mismatch"
)

// retryable lists codes a caller may redeliver later.
var retryable = map[Code]bool{
	CodeLookupUnavailable:  true,
	CodeResolutionConflict: true,
	CodeTimeout:            true,
}

// Error is a domain error carrying a Code and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error with the given code.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
// Wrapping a nil error returns nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the outermost Code in the chain, or CodeInternal for
// errors that carry none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability in handlers.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// IsRetryable reports whether the error should be redelivered by the caller
// rather than dropped.
func IsRetryable(err error) bool {
	return err != nil && retryable[CodeOf(err)]
}
