// Package errors provides structured error types for the ChainView engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI, API, and the embedding host
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Each failure domain of the engine has a dedicated code. Only GRAPH_BUILD
// on a root payload is fatal to a session; every other code is local and
// recoverable.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeGraphBuild, "payload is not a nodes/edges container")
//	if errors.Is(err, errors.ErrCodeGraphBuild) {
//	    // Handle fatal build error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeCommunityDetection, origErr, "detect against %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Engine failure domains
	ErrCodeGraphBuild         Code = "GRAPH_BUILD"          // Malformed root payload; fatal to the load
	ErrCodeRendererInit       Code = "RENDERER_INIT"        // Zero-size surface; retried on next resize
	ErrCodeViewport           Code = "VIEWPORT"             // Fullscreen request denied; state unchanged
	ErrCodeCommunityDetection Code = "COMMUNITY_DETECTION"  // Detection service failure; overlay unchanged
	ErrCodeExport             Code = "EXPORT"               // Surface unavailable for export

	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

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

// Fatal reports whether err is fatal to a graph session. Only a GRAPH_BUILD
// failure on the root payload tears a session down; everything else is
// reported and leaves the session in Ready.
func Fatal(err error) bool {
	return Is(err, ErrCodeGraphBuild)
}
