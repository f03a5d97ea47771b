package model

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "without wrapped error",
			err: &APIError{
				Code:    "TEST_ERROR",
				Message: "something went wrong",
			},
			want: "TEST_ERROR: something went wrong",
		},
		{
			name: "with wrapped error",
			err: &APIError{
				Code:    "TEST_ERROR",
				Message: "something went wrong",
				Err:     errors.New("underlying cause"),
			},
			want: "TEST_ERROR: something went wrong (underlying cause)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &APIError{Code: "TEST", Message: "test", Err: underlying}

	if err.Unwrap() != underlying {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), underlying)
	}

	errNoWrap := &APIError{Code: "TEST", Message: "test"}
	if errNoWrap.Unwrap() != nil {
		t.Error("Unwrap() should return nil when no wrapped error")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		code     string
		status   int
		sentinel error
	}{
		{"not found", NewNotFoundError("product"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"validation", NewValidationError("quantity", "must be positive"), "VALIDATION_ERROR", http.StatusBadRequest, ErrInvalidRequest},
		{"required field", NewRequiredFieldError("firstName"), "VALIDATION_ERROR", http.StatusBadRequest, ErrInvalidRequest},
		{"auth required", NewAuthRequiredError("sign in first"), "AUTH_REQUIRED", http.StatusUnauthorized, ErrAuthRequired},
		{"remote", NewRemoteError(500, "boom"), "REMOTE_REQUEST_FAILED", http.StatusBadGateway, ErrRemoteRequestFailed},
		{"transport", NewTransportError("catalog", errors.New("dial tcp")), "REMOTE_REQUEST_FAILED", http.StatusBadGateway, ErrRemoteRequestFailed},
		{"rate limit", NewRateLimitError("catalog", time.Second), "RATE_LIMITED", http.StatusTooManyRequests, ErrRateLimited},
		{"malformed", NewMalformedStateError("cart", errors.New("bad json")), "MALFORMED_LOCAL_STATE", http.StatusInternalServerError, ErrMalformedLocalState},
		{"checkout", NewCheckoutUnavailableError(), "CHECKOUT_UNAVAILABLE", http.StatusNotImplemented, ErrCheckoutUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", tt.err.StatusCode, tt.status)
			}
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("error should wrap %v", tt.sentinel)
			}
		})
	}
}

func TestNewRequiredFieldError(t *testing.T) {
	err := NewRequiredFieldError("firstName")
	if err.Field != "firstName" {
		t.Errorf("Field = %q, want firstName", err.Field)
	}
	if err.Message != "firstName is required" {
		t.Errorf("Message = %q, want %q", err.Message, "firstName is required")
	}
}

func TestNewRemoteError(t *testing.T) {
	err := NewRemoteError(409, "")
	if err.RemoteStatus != 409 {
		t.Errorf("RemoteStatus = %d, want 409", err.RemoteStatus)
	}
	if err.Message != "Conflict" {
		t.Errorf("Message = %q, want status text fallback", err.Message)
	}

	err = NewRemoteError(400, "product out of stock")
	if err.Message != "product out of stock" {
		t.Errorf("Message = %q, want server message", err.Message)
	}
}

func TestRateLimitIsRemoteFailure(t *testing.T) {
	err := NewRateLimitError("cart", 3*time.Second)
	if !errors.Is(err, ErrRemoteRequestFailed) {
		t.Error("rate limit should also match ErrRemoteRequestFailed")
	}
	if err.RetryAfter != 3*time.Second {
		t.Errorf("RetryAfter = %v, want 3s", err.RetryAfter)
	}
}

func TestRemoteStatus(t *testing.T) {
	wrapped := fmt.Errorf("adding item: %w", NewRemoteError(503, "down"))
	if got := RemoteStatus(wrapped); got != 503 {
		t.Errorf("RemoteStatus() = %d, want 503", got)
	}
	if got := RemoteStatus(errors.New("plain")); got != 0 {
		t.Errorf("RemoteStatus(plain) = %d, want 0", got)
	}
}
