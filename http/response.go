package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// APIResponse is the JSON envelope every endpoint except download answers with.
type APIResponse[T any] struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      *T        `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Success builds a successful envelope carrying data.
func Success[T any](message string, data T) APIResponse[T] {
	return APIResponse[T]{
		Success:   true,
		Message:   message,
		Data:      &data,
		Timestamp: time.Now().UTC(),
	}
}

// Result builds an envelope without data.
func Result(success bool, message string) APIResponse[struct{}] {
	return APIResponse[struct{}]{
		Success:   success,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// Failure builds an unsuccessful envelope without data.
func Failure(message string) APIResponse[struct{}] {
	return Result(false, message)
}

// WriteError writes a failure envelope with the given status code.
func WriteError(w http.ResponseWriter, code int, message string) {
	if err := WriteJSON(w, code, Failure(message)); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError logs err and writes the matching failure envelope.
func HandleError(w http.ResponseWriter, err error) {
	code, message := translateError(err)
	if code >= http.StatusInternalServerError {
		slog.Error("request error", "error", err)
	} else {
		slog.Warn("request rejected", "error", err)
	}
	WriteError(w, code, message)
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
