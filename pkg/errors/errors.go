// Package errors provides structured, user-facing error types for depsync.
//
// The core packages return typed errors (deps.ParseError,
// deps.RepositoryError, deps.VersionError, reconcile.CacheStateError).
// This package gives them a machine-readable code at the edge:
//
//   - INVALID_*: configuration and input validation failures
//   - NOT_FOUND: a coordinate no repository knows
//   - VERSION_UNRESOLVED: a version-less dependency without candidates
//   - NETWORK_ERROR: transport failures
//   - CACHE_STATE: a fingerprint that could not be persisted
//   - INTERNAL_ERROR: everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "duplicate repository %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // Handle configuration error
//	}
//
//	// Classify a core error for display
//	code := errors.Classify(err)
package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/depsync/pkg/deps"
	"github.com/matzehuels/depsync/pkg/reconcile"
	"github.com/matzehuels/depsync/pkg/transport"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidCoordinate Code = "INVALID_COORDINATE"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"
	ErrCodeInvalidPath       Code = "INVALID_PATH"

	// Resolution errors
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeVersionUnresolved Code = "VERSION_UNRESOLVED"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"

	// Reconciler errors
	ErrCodeCacheState Code = "CACHE_STATE"

	ErrCodeCanceled Code = "CANCELED"
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

// Classify returns the code of err. Coded errors keep their code; core
// errors are mapped by type.
func Classify(err error) Code {
	if err == nil {
		return ""
	}
	if code := GetCode(err); code != "" {
		return code
	}

	var (
		parseErr   *deps.ParseError
		versionErr *deps.VersionError
		repoErr    *deps.RepositoryError
		stateErr   *reconcile.CacheStateError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeCanceled
	case errors.As(err, &parseErr):
		return ErrCodeInvalidCoordinate
	case errors.As(err, &versionErr):
		return ErrCodeVersionUnresolved
	case errors.As(err, &stateErr):
		return ErrCodeCacheState
	case errors.Is(err, deps.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, transport.ErrNetwork), errors.As(err, &repoErr):
		return ErrCodeNetwork
	}
	return ErrCodeInternal
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}
