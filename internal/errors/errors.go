// Package errors provides the error taxonomy shared by the Gramps client and the tool layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-success response from the Gramps Web API.
type APIError struct {
	Status  int    // HTTP status, 0 for transport failures
	Message string // user-facing message
}

func (e *APIError) Error() string {
	return e.Message
}

// NewStatusError maps an HTTP status to the message shown to the user.
func NewStatusError(status int) *APIError {
	return &APIError{Status: status, Message: StatusMessage(status)}
}

// StatusMessage returns the user-facing text for an upstream status code.
func StatusMessage(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "Authentication failed. Please check your credentials."
	case status == http.StatusForbidden:
		return "Permission denied for this operation."
	case status == http.StatusNotFound:
		return "Record not found."
	case status == http.StatusUnprocessableEntity:
		return "Invalid data provided."
	case status >= 500:
		return "Server error. Please try again later."
	default:
		return fmt.Sprintf("Request failed with status %d", status)
	}
}

// NewConnectError wraps a transport failure.
func NewConnectError(err error) *APIError {
	return &APIError{Message: "Cannot connect to Gramps API: " + err.Error()}
}

// NewTimeoutError wraps a request that ran out of time.
func NewTimeoutError(err error) *APIError {
	return &APIError{Message: "Request timeout: " + err.Error()}
}

// AuthError is returned when exchanging credentials for a token fails.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// NewAuthStatusError maps a failed token exchange status to its message.
func NewAuthStatusError(status int) *AuthError {
	if status == http.StatusForbidden {
		return &AuthError{Status: status, Message: "Invalid username or password"}
	}
	return &AuthError{Status: status, Message: fmt.Sprintf("Authentication failed: HTTP %d", status)}
}

// NotFoundError indicates a Gramps ID or handle resolved to no record.
type NotFoundError struct {
	Kind       string // "person", "family", ...
	Identifier string // gramps id or handle
}

func (e *NotFoundError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s not found: %s", e.Kind, e.Identifier)
	}
	return fmt.Sprintf("record not found: %s", e.Identifier)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(kind, identifier string) *NotFoundError {
	return &NotFoundError{Kind: kind, Identifier: identifier}
}

// ValidationError indicates invalid input parameters.
type ValidationError struct {
	Field   string // field name that failed validation
	Value   string // the invalid value (may be empty)
	Message string // human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("validation failed for %s=%q: %s", e.Field, e.Value, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsAPI reports whether err wraps an APIError.
func IsAPI(err error) bool {
	var target *APIError
	return errors.As(err, &target)
}

// IsAuth reports whether err wraps an AuthError.
func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Status
	}
	return 0
}
