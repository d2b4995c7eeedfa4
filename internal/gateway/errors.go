package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an upstream failure so callers can decide between
// surfacing, redirecting, and resetting the session.
type Kind int

const (
	KindUnexpected Kind = iota
	KindNetwork
	KindValidation
	KindAuth
	KindPermission
	KindNotFound
	KindRateLimited
	KindServer
)

const (
	msgNetwork     = "Network error. Please check your connection."
	msgAuth        = "Session expired. Please login again."
	msgPermission  = "Access denied. You do not have permission to perform this action."
	msgNotFound    = "Resource not found."
	msgValidation  = "Validation failed."
	msgRateLimited = "Too many requests. Please try again later."
	msgServer      = "Server error. Please try again later."
	msgUnexpected  = "An unexpected error occurred."
)

// APIError is the classified result of a failed account API call.
type APIError struct {
	Kind    Kind
	Status  int
	Message string
	cause   error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("gateway: %s (status %d)", e.Message, e.Status)
	}
	return "gateway: " + e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// classify maps an HTTP status and optional server message to an APIError.
// A missing server message falls back to a generic per-kind message.
func classify(status int, message string) *APIError {
	kind, fallback := KindUnexpected, msgUnexpected

	switch {
	case status == http.StatusUnauthorized:
		kind, fallback = KindAuth, msgAuth
	case status == http.StatusForbidden:
		kind, fallback = KindPermission, msgPermission
	case status == http.StatusNotFound:
		kind, fallback = KindNotFound, msgNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind, fallback = KindValidation, msgValidation
	case status == http.StatusTooManyRequests:
		kind, fallback = KindRateLimited, msgRateLimited
	case status >= 500:
		kind, fallback = KindServer, msgServer
	}

	if message == "" {
		message = fallback
	}

	return &APIError{Kind: kind, Status: status, Message: message}
}

func networkError(err error) *APIError {
	return &APIError{Kind: KindNetwork, Message: msgNetwork, cause: err}
}

func validationError(err error) *APIError {
	return &APIError{Kind: KindValidation, Message: err.Error(), cause: err}
}

// AsAPIError unwraps err to its APIError, or nil if it has none.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// KindOf returns the classified kind for err, KindUnexpected otherwise.
func KindOf(err error) Kind {
	if apiErr := AsAPIError(err); apiErr != nil {
		return apiErr.Kind
	}
	return KindUnexpected
}

// UserMessage returns the server-provided message for err, or fallback
// when the failure carries nothing presentable.
func UserMessage(err error, fallback string) string {
	if apiErr := AsAPIError(err); apiErr != nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
