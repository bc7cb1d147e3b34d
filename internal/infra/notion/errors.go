package notion

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a call without
// contacting the API.
var ErrCircuitOpen = errors.New("notion api unavailable: circuit breaker open")

// APIError is the error object returned by the Notion API for non-2xx responses.
//
// Example body:
//
//	{"object":"error","status":404,"code":"object_not_found","message":"Could not find page with ID: ..."}
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion api error: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("notion api error: status %d (%s): %s", e.Status, e.Code, e.Message)
}

// Temporary reports whether the error reflects upstream trouble (rate limit
// or server error) rather than a problem with the request itself.
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// IsNotFound reports whether err is a Notion "object not found" response.
// Notion answers 404 both for missing objects and for objects the
// integration has not been granted access to.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusNotFound || apiErr.Code == "object_not_found"
	}
	return false
}

// countsAsSuccess classifies errors for the circuit breaker: client errors
// (bad id, missing page, no access) do not indicate an unhealthy API.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return !apiErr.Temporary()
	}
	return false
}
