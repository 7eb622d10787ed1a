// Package errors provides structured error types for squaregrid.
//
// Errors carry a machine-readable [Code] so the CLI can print a short
// message and exit with a stable status, and so callers can branch on the
// kind of failure without matching strings.
//
// # Error Codes
//
//   - INVALID_*: bad configuration or input documents
//   - MALFORMED_COLUMN_KEY, DUPLICATE_CELL_ASSIGNMENT: grid resolution
//   - MISSING_BACKING_IMAGE: canvas compositing
//   - NOT_FOUND, NETWORK_ERROR, RATE_LIMITED: fetching
//   - INTERNAL_ERROR: anything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "square width must be positive")
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // ...
//	}
//
//	err = errors.Wrap(errors.ErrCodeNetwork, origErr, "fetch %s", url)
//
// Pipeline failures are reported as a [PhaseError] naming the phase that
// failed.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Input and configuration errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidName   Code = "INVALID_NAME"

	// Grid and compositing errors
	ErrCodeMalformedColumnKey Code = "MALFORMED_COLUMN_KEY"
	ErrCodeDuplicateCell      Code = "DUPLICATE_CELL_ASSIGNMENT"
	ErrCodeMissingImage       Code = "MISSING_BACKING_IMAGE"

	// Fetch errors
	ErrCodeNotFound    Code = "NOT_FOUND"
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error wrapping cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code anywhere in its chain.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, or "" if it carries none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a message fit for the terminal: the message of the
// first *Error in the chain (prefixed by its phase, if any), or the error
// string itself.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	var pe *PhaseError
	if errors.As(err, &pe) {
		return pe.Phase + ": " + msg
	}
	return msg
}

// PhaseError reports which pipeline phase failed.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// InPhase wraps err as a failure of phase. A nil err stays nil.
func InPhase(phase string, err error) error {
	if err == nil {
		return nil
	}
	return &PhaseError{Phase: phase, Err: err}
}

// RateLimitedError is returned when the gallery server answers 429.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	URL        string
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited fetching %s: retry after %d seconds", e.URL, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited fetching %s", e.URL)
}

// Code returns ErrCodeRateLimited.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
