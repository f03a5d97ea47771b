package model

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrAuthRequired        = errors.New("authentication required")
	ErrRemoteRequestFailed = errors.New("remote request failed")
	ErrMalformedLocalState = errors.New("malformed local state")
	ErrRateLimited         = errors.New("rate limited")
	ErrCheckoutUnavailable = errors.New("checkout unavailable")
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code         string        `json:"code"`
	Message      string        `json:"message"`
	Field        string        `json:"field,omitempty"` // Offending input field for validation errors
	StatusCode   int           `json:"-"`               // HTTP status we answer with
	RemoteStatus int           `json:"-"`               // Status returned by the external API, 0 for transport failures
	RetryAfter   time.Duration `json:"-"`
	Err          error         `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		Field:      field,
		StatusCode: http.StatusBadRequest,
		Err:        ErrInvalidRequest,
	}
}

// NewRequiredFieldError creates a 400 error naming a missing input field.
func NewRequiredFieldError(field string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("%s is required", field),
		Field:      field,
		StatusCode: http.StatusBadRequest,
		Err:        ErrInvalidRequest,
	}
}

// NewAuthRequiredError creates a 401 error for operations that need a session token.
func NewAuthRequiredError(reason string) *APIError {
	return &APIError{
		Code:       "AUTH_REQUIRED",
		Message:    reason,
		StatusCode: http.StatusUnauthorized,
		Err:        ErrAuthRequired,
	}
}

// NewRemoteError creates a 502 error for a non-2xx answer from the external API.
// message is the server-supplied message when present.
func NewRemoteError(status int, message string) *APIError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{
		Code:         "REMOTE_REQUEST_FAILED",
		Message:      message,
		StatusCode:   http.StatusBadGateway,
		RemoteStatus: status,
		Err:          fmt.Errorf("%w: status %d", ErrRemoteRequestFailed, status),
	}
}

// NewTransportError creates a 502 error for requests that never got an answer.
func NewTransportError(service string, err error) *APIError {
	return &APIError{
		Code:       "REMOTE_REQUEST_FAILED",
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: http.StatusBadGateway,
		Err:        fmt.Errorf("%w: %v", ErrRemoteRequestFailed, err),
	}
}

// NewRateLimitError creates a 429 error for rate limiting.
// Rate limited requests are remote failures too, so callers that degrade on
// remote failure treat them the same way.
func NewRateLimitError(service string, retryAfter time.Duration) *APIError {
	return &APIError{
		Code:         "RATE_LIMITED",
		Message:      fmt.Sprintf("%s rate limit exceeded, please retry later", service),
		StatusCode:   http.StatusTooManyRequests,
		RemoteStatus: http.StatusTooManyRequests,
		RetryAfter:   retryAfter,
		Err:          fmt.Errorf("%w: %w", ErrRateLimited, ErrRemoteRequestFailed),
	}
}

// NewMalformedStateError reports a local slot whose contents could not be decoded.
func NewMalformedStateError(slot string, err error) *APIError {
	return &APIError{
		Code:       "MALFORMED_LOCAL_STATE",
		Message:    fmt.Sprintf("stored %s is not readable", slot),
		StatusCode: http.StatusInternalServerError,
		Err:        fmt.Errorf("%w: %v", ErrMalformedLocalState, err),
	}
}

// NewCheckoutUnavailableError is returned by the checkout placeholder.
func NewCheckoutUnavailableError() *APIError {
	return &APIError{
		Code:       "CHECKOUT_UNAVAILABLE",
		Message:    "Checkout functionality coming soon!",
		StatusCode: http.StatusNotImplemented,
		Err:        ErrCheckoutUnavailable,
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// RemoteStatus returns the external API status carried by err, or 0.
func RemoteStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RemoteStatus
	}
	return 0
}
