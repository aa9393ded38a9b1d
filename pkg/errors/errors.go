// Package errors provides structured error types for erkit.
//
// The ER core is not allowed to interrupt a user's gesture with an error, so
// most of the codes below are never returned from a rule or a move. They are
// attached to log records and observability hooks instead, which keeps the
// failure taxonomy machine-readable even where the behavior degrades silently.
// The remaining codes cover the outer surfaces (CLI, HTTP API, document I/O)
// where errors are returned normally.
//
// # Error Codes
//
//   - CLASSIFICATION_AMBIGUOUS: an element's kind could not be resolved
//   - CONTAINMENT_QUERY_FAILED: the element registry could not be queried
//   - RULE_EVALUATION_ERROR: a rule predicate failed and was treated as defer
//   - SYNC_MISMATCH: a property has no attribute slot for its kind, or vice versa
//   - COMPOSITE_LOCKED: isComposite cannot be cleared while children exist
//
// # Usage
//
//	err := errors.New(errors.ErrCodeCompositeLocked, "container %s has %d children", id, n)
//	if errors.Is(err, errors.ErrCodeCompositeLocked) {
//	    // Reject the property change
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeContainmentQuery, origErr, "enumerate elements")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Core taxonomy (logged, never raised into a gesture)
	ErrCodeClassificationAmbiguous Code = "CLASSIFICATION_AMBIGUOUS"
	ErrCodeContainmentQuery        Code = "CONTAINMENT_QUERY_FAILED"
	ErrCodeRuleEvaluation          Code = "RULE_EVALUATION_ERROR"
	ErrCodeSyncMismatch            Code = "SYNC_MISMATCH"

	// Model constraint violations
	ErrCodeCompositeLocked Code = "COMPOSITE_LOCKED"
	ErrCodeNotContainer    Code = "NOT_CONTAINER"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeStorage  Code = "STORAGE_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// PanicError converts a recovered panic value into an *Error with the given
// code. Errors passed to panic are kept as the cause.
func PanicError(code Code, recovered any, format string, args ...any) *Error {
	if err, ok := recovered.(error); ok {
		return Wrap(code, err, format, args...)
	}
	return Wrap(code, fmt.Errorf("panic: %v", recovered), format, args...)
}
