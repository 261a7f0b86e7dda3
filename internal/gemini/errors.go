package gemini

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredential is returned when a call is made without an API key.
	ErrNoCredential = errors.New("API key is required")

	// ErrEmptyResponse is returned when the API answers without any text.
	ErrEmptyResponse = errors.New("response contained no text")
)

// APIError is a non-2xx response from the Gemini API.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("API Error: %d - %s", e.Code, e.Message)
}

// IsAuthError reports whether the key was rejected.
func (e *APIError) IsAuthError() bool {
	return e.Code == 401 || e.Code == 403 ||
		(e.Code == 400 && e.Status == "INVALID_ARGUMENT" && containsAPIKey(e.Message))
}

// IsRetryable reports whether the same request may succeed later.
func (e *APIError) IsRetryable() bool {
	switch e.Code {
	case 429, 500, 503:
		return true
	default:
		return false
	}
}

type errorResponse struct {
	Error *APIError `json:"error"`
}
