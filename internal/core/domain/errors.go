// Package domain defines the core domain models for docmirror.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "DM-SNAP-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	return code == "" || de.Code == code
}

// Predefined domain errors.
var (
	// ErrInvalidObjectID indicates a string that is not a 24-character hex id.
	ErrInvalidObjectID = NewDomainError("DM-ID-4000", "invalid object id")

	// ErrDocumentNotFound indicates no document matches the identifier.
	ErrDocumentNotFound = NewDomainError("DM-DOC-4040", "document not found")

	// ErrDuplicateID indicates an insert collided with an existing identifier.
	ErrDuplicateID = NewDomainError("DM-DOC-4090", "duplicate document id")

	// ErrMalformedSnapshot indicates a snapshot collection file failed to decode.
	ErrMalformedSnapshot = NewDomainError("DM-SNAP-4220", "malformed snapshot file")

	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = NewDomainError("DM-STOR-5030", "store closed")

	// ErrInternal indicates an unexpected internal failure.
	ErrInternal = NewDomainError("DM-INT-5000", "internal error")
)
