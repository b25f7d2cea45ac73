package ndexpress

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error represents an API error response.
type Error struct {
	// StatusCode is the HTTP status code.
	StatusCode int `json:"-"`
	// Code is the short error label (e.g., "invalid credentials").
	Code string `json:"error"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// AttemptsRemaining is set on failed logins before a lockout.
	AttemptsRemaining *int `json:"tentativas_restantes,omitempty"`
	// RetryAfterMinutes is set when the account is locked.
	RetryAfterMinutes *int `json:"retry_after_minutes,omitempty"`
	// RetryAfter is set on rate-limited requests, in seconds.
	RetryAfter *int `json:"retryAfter,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// IsUnauthorized returns true for credential and token failures.
func (e *Error) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsLocked returns true when the account is under a login lockout.
func (e *Error) IsLocked() bool {
	return e.StatusCode == http.StatusLocked
}

// IsInactive returns true when the account has not been activated.
func (e *Error) IsInactive() bool {
	return e.StatusCode == http.StatusForbidden
}

// IsRateLimited returns true when the request was throttled.
func (e *Error) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsConflict returns true for duplicate registrations and state conflicts.
func (e *Error) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// IsNotFound returns true when the resource does not exist.
func (e *Error) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsValidationError returns true for rejected request payloads.
func (e *Error) IsValidationError() bool {
	return e.StatusCode == http.StatusBadRequest ||
		e.StatusCode == http.StatusUnprocessableEntity
}

// parseError parses an error response from the API.
func parseError(statusCode int, body []byte) error {
	var apiError Error
	if err := json.Unmarshal(body, &apiError); err == nil && (apiError.Code != "" || apiError.Message != "") {
		apiError.StatusCode = statusCode
		return &apiError
	}

	return &Error{
		StatusCode: statusCode,
		Code:       http.StatusText(statusCode),
		Message:    string(body),
	}
}

// IsAPIError checks if an error is an API error and returns it.
func IsAPIError(err error) (*Error, bool) {
	if apiErr, ok := err.(*Error); ok {
		return apiErr, true
	}
	return nil, false
}
