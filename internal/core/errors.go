// Package core provides shared types and the error taxonomy for the host process.
package core

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies host errors for the bridge boundary.
type ErrorKind string

const (
	// ErrorKindStoreUnavailable indicates the embedded store is not initialized
	// or unreachable. The whole operation failed with no partial effect.
	ErrorKindStoreUnavailable ErrorKind = "store_unavailable"
	// ErrorKindValidation indicates malformed input rejected before any write.
	ErrorKindValidation ErrorKind = "validation_error"
	// ErrorKindNotFound indicates a lookup against an absent key.
	ErrorKindNotFound ErrorKind = "not_found"
	// ErrorKindInternal indicates an unexpected failure.
	ErrorKindInternal ErrorKind = "internal_error"
)

// HostError is the base error type for all host operations. Errors of this
// type are converted to a uniform {success: false, error} payload at the
// bridge boundary rather than propagated to the UI as transport failures.
type HostError struct {
	Kind    ErrorKind
	Message string
	// Original error for debugging (not exposed to the UI)
	Err error
}

// Error implements the error interface
func (e *HostError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *HostError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the HTTP status code used by the bridge for this error.
func (e *HostError) HTTPStatusCode() int {
	switch e.Kind {
	case ErrorKindValidation:
		return http.StatusBadRequest
	case ErrorKindNotFound:
		return http.StatusNotFound
	case ErrorKindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewStoreUnavailableError creates an error for a missing or failed store.
func NewStoreUnavailableError(message string, err error) *HostError {
	return &HostError{
		Kind:    ErrorKindStoreUnavailable,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates an error for input rejected before any write.
func NewValidationError(message string) *HostError {
	return &HostError{
		Kind:    ErrorKindValidation,
		Message: message,
	}
}

// NewNotFoundError creates an error for a lookup against an absent key.
func NewNotFoundError(message string) *HostError {
	return &HostError{
		Kind:    ErrorKindNotFound,
		Message: message,
	}
}

// NewInternalError creates an error for an unexpected failure.
func NewInternalError(message string, err error) *HostError {
	return &HostError{
		Kind:    ErrorKindInternal,
		Message: message,
		Err:     err,
	}
}
