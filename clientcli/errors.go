package clientcli

import (
	"errors"
	"net/http"
	"strconv"
)

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// Errors for configuration validation.
var (
	ErrConfigRequired   = errors.New("config is required")
	ErrInvalidEndpoint  = errors.New("endpoint must be an http or https URL")
	ErrMalformedPayload = errors.New("malformed response envelope")
)

// Errors for input validation.
var (
	ErrNoPaths  = errors.New("no paths provided")
	ErrEmptyKey = errors.New("key is required")
)

// APIError is a failure reported by the server, either through a non-200
// status or an envelope with success set to false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "server error: " + strconv.Itoa(e.StatusCode)
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Message
}

// Is reports whether target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the route does not exist (404). Missing
	// objects are reported by the server as ErrServerError.
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrBadRequest is returned for rejected input, including uploads over
	// the size limit (400).
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}

	// ErrServerError is returned when the storage call failed (500).
	ErrServerError = &APIError{StatusCode: http.StatusInternalServerError}

	// ErrUnavailable is returned by Health when the bucket is unreachable (503).
	ErrUnavailable = &APIError{StatusCode: http.StatusServiceUnavailable}
)
