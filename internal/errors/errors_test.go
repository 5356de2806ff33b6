package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatusMessage(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{401, "Authentication failed. Please check your credentials."},
		{403, "Permission denied for this operation."},
		{404, "Record not found."},
		{422, "Invalid data provided."},
		{500, "Server error. Please try again later."},
		{503, "Server error. Please try again later."},
		{409, "Request failed with status 409"},
		{400, "Request failed with status 400"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			if got := StatusMessage(tt.status); got != tt.expected {
				t.Errorf("StatusMessage(%d) = %q, want %q", tt.status, got, tt.expected)
			}
			err := NewStatusError(tt.status)
			if err.Status != tt.status || err.Error() != tt.expected {
				t.Errorf("NewStatusError(%d) = %+v", tt.status, err)
			}
		})
	}
}

func TestNewAuthStatusError(t *testing.T) {
	if got := NewAuthStatusError(403).Error(); got != "Invalid username or password" {
		t.Errorf("403 message = %q", got)
	}
	if got := NewAuthStatusError(500).Error(); got != "Authentication failed: HTTP 500" {
		t.Errorf("500 message = %q", got)
	}
}

func TestConnectAndTimeoutErrors(t *testing.T) {
	base := errors.New("dial tcp: refused")
	if got := NewConnectError(base).Error(); got != "Cannot connect to Gramps API: dial tcp: refused" {
		t.Errorf("connect message = %q", got)
	}
	if got := NewTimeoutError(base).Error(); got != "Request timeout: dial tcp: refused" {
		t.Errorf("timeout message = %q", got)
	}
}

func TestNotFoundError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		expected string
	}{
		{
			name:     "with kind",
			err:      NewNotFoundError("person", "I0001"),
			expected: "person not found: I0001",
		},
		{
			name:     "without kind",
			err:      &NotFoundError{Identifier: "abc123"},
			expected: "record not found: abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("NotFoundError.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		expected string
	}{
		{
			name:     "field and value",
			err:      NewValidationError("gender", "7", "must be 0, 1 or 2"),
			expected: `validation failed for gender="7": must be 0, 1 or 2`,
		},
		{
			name:     "field only",
			err:      NewValidationError("primary_name", "", "is required"),
			expected: "validation failed for primary_name: is required",
		},
		{
			name:     "message only",
			err:      NewValidationError("", "", "no identifier"),
			expected: "validation failed: no identifier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("ValidationError.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("find_type failed: %w", NewStatusError(404))
	if !IsAPI(wrapped) {
		t.Error("IsAPI should match wrapped APIError")
	}
	if StatusOf(wrapped) != 404 {
		t.Errorf("StatusOf = %d, want 404", StatusOf(wrapped))
	}
	if IsAuth(wrapped) || IsNotFound(wrapped) || IsValidation(wrapped) {
		t.Error("unexpected predicate match")
	}

	authErr := fmt.Errorf("login: %w", NewAuthStatusError(403))
	if !IsAuth(authErr) || StatusOf(authErr) != 403 {
		t.Error("IsAuth/StatusOf should match wrapped AuthError")
	}

	if !IsNotFound(fmt.Errorf("x: %w", NewNotFoundError("family", "F1"))) {
		t.Error("IsNotFound should match wrapped NotFoundError")
	}
	if !IsValidation(fmt.Errorf("x: %w", NewValidationError("a", "", "b"))) {
		t.Error("IsValidation should match wrapped ValidationError")
	}
	if StatusOf(errors.New("plain")) != 0 {
		t.Error("StatusOf plain error should be 0")
	}
}
