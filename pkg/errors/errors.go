// Package errors provides structured error types for composeviz.
//
// Every failure the model-building engine can produce carries a
// machine-readable [Code], so the CLI and the HTTP endpoint can map it to an
// exit message or a status code without string matching.
//
// # Error Codes
//
//   - INVALID_CONFIGURATION: malformed YAML, unreadable or missing files,
//     unexpected shapes in a service definition
//   - VERSION_MISMATCH: base and override documents declare different versions
//   - NOT_FOUND: a relation references an entity that was never registered
//   - INVALID_*: command-line or request input failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "service %q not found", name)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // typo in depends_on, links, ...
//	}
//
//	err := errors.Wrap(errors.ErrCodeInvalidConfiguration, yamlErr, "parse %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors
	ErrCodeInvalidConfiguration Code = "INVALID_CONFIGURATION"
	ErrCodeVersionMismatch      Code = "VERSION_MISMATCH"

	// Graph construction errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidColor  Code = "INVALID_COLOR"
	ErrCodeFileExists    Code = "FILE_EXISTS"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Path    string // Configuration file the error relates to (optional)
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithPath returns a copy of e annotated with the offending file path.
func (e *Error) WithPath(path string) *Error {
	cp := *e
	cp.Path = path
	return &cp
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
// For *Error types, returns the message (and path) without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Path != "" {
			return fmt.Sprintf("%s (%s)", e.Message, e.Path)
		}
		return e.Message
	}
	return err.Error()
}
