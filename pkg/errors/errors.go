package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of application errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeForbidden      ErrorType = "forbidden"
	ErrorTypeInvalidState   ErrorType = "invalid_state"
	ErrorTypeInvalidWindow  ErrorType = "invalid_window"
	ErrorTypeAlreadyVoted   ErrorType = "already_voted"
	ErrorTypeNotEligible    ErrorType = "candidate_not_eligible"
	ErrorTypeNotActive      ErrorType = "election_not_active"
	ErrorTypeConflict       ErrorType = "facility_conflict"
	ErrorTypeMissingReason  ErrorType = "missing_reason"
	ErrorTypeStore          ErrorType = "store_unavailable"
	ErrorTypeInternal       ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewForbiddenError creates a policy-denial error
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewInvalidStateError signals an illegal lifecycle transition
func NewInvalidStateError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidState,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewInvalidWindowError signals a malformed or past booking window
func NewInvalidWindowError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidWindow,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewAlreadyVotedError signals a duplicate vote for the same election
func NewAlreadyVotedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAlreadyVoted,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewNotEligibleError signals a vote for an unapproved or foreign candidate
func NewNotEligibleError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotEligible,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewNotActiveError signals a vote outside the election's active window
func NewNotActiveError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotActive,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewConflictError signals an overlapping approved booking for the facility
func NewConflictError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
		Details:    details,
	}
}

// NewMissingReasonError signals a rejection without the mandatory reason
func NewMissingReasonError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeMissingReason,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewStoreError wraps a document-store transport or infrastructure failure
func NewStoreError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeStore,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Internal:   internal,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// ErrorResponse represents the JSON error response
type ErrorResponse struct {
	Error struct {
		Type      ErrorType              `json:"type"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details,omitempty"`
		RequestID string                 `json:"request_id,omitempty"`
		Timestamp string                 `json:"timestamp"`
	} `json:"error"`
}
