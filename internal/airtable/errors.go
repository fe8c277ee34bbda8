package airtable

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches API errors caused by a missing or rejected key.
	ErrUnauthorized = errors.New("airtable: unauthorized")

	// ErrRateLimited matches API errors returned when the request rate limit is exceeded.
	ErrRateLimited = errors.New("airtable: rate limited")

	// ErrNotFound matches API errors for unknown bases, tables or records.
	ErrNotFound = errors.New("airtable: not found")
)

// APIError is a non-2xx response from the Airtable API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	Method     string
	Endpoint   string
}

func (e *APIError) Error() string {
	msg := e.Type
	if e.Message != "" {
		if msg != "" {
			msg += ": "
		}
		msg += e.Message
	}
	return fmt.Sprintf("airtable %s %s (status %d): %s", e.Method, e.Endpoint, e.StatusCode, msg)
}

// Is implements errors.Is support.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return target == ErrUnauthorized
	case http.StatusTooManyRequests:
		return target == ErrRateLimited
	case http.StatusNotFound:
		return target == ErrNotFound
	}
	return false
}

// parseAPIError builds an APIError from a response body. Airtable sends either
// {"error": {"type": ..., "message": ...}} or {"error": "TYPE"}.
func parseAPIError(status int, method, endpoint string, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Method:     method,
		Endpoint:   endpoint,
	}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		apiErr.Message = http.StatusText(status)
		return apiErr
	}

	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err == nil {
		apiErr.Type = detail.Type
		apiErr.Message = detail.Message
		return apiErr
	}

	var code string
	if err := json.Unmarshal(envelope.Error, &code); err == nil {
		apiErr.Type = code
	}
	return apiErr
}
