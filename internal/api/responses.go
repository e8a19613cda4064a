package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	app_errors "persona-chat/internal/errors"
	"persona-chat/internal/llm"
	"persona-chat/internal/service"
)

// This file contains shared DTOs for API responses and helper functions for
// sending consistent HTTP responses.

// ErrorResponse is the standard JSON structure for error messages.
// RetryAfter, in seconds, is only set on rate-limit responses.
type ErrorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// StatusResponse is the fixed-shape liveness payload.
type StatusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// respondWithError is the centralized error handling function for the API
// layer. It maps service-layer errors to HTTP status codes and a standard
// JSON error body, never leaking unexpected internals to the client.
func respondWithError(w http.ResponseWriter, err error) {
	var statusCode int
	payload := ErrorResponse{}

	var rateErr *service.RateLimitedError
	var statusErr *llm.StatusError

	switch {
	case errors.As(err, &rateErr):
		statusCode = http.StatusTooManyRequests
		payload.Error = "The assistant is receiving too many requests. Please try again shortly."
		payload.RetryAfter = int(rateErr.RetryAfter.Seconds())
		w.Header().Set("Retry-After", strconv.Itoa(payload.RetryAfter))
	case errors.As(err, &statusErr):
		// Mirror the upstream's own failure status to the caller.
		statusCode = statusErr.Code
		payload.Error = "The upstream completion API rejected the request."
		payload.Details = statusErr.Body
	case errors.Is(err, app_errors.ErrValidation):
		statusCode = http.StatusBadRequest
		// Validation messages from the service layer are already descriptive
		// and safe to show.
		payload.Error = err.Error()
	case errors.Is(err, app_errors.ErrEmptyReply):
		statusCode = http.StatusBadGateway
		payload.Error = "The upstream completion API returned no usable reply."
	case errors.Is(err, app_errors.ErrUpstream):
		statusCode = http.StatusBadGateway
		payload.Error = "Could not reach the upstream completion API."
		payload.Details = err.Error()
	case errors.Is(err, app_errors.ErrNoCredential):
		statusCode = http.StatusInternalServerError
		payload.Error = "The relay is not configured with an upstream API credential."
	default:
		statusCode = http.StatusInternalServerError
		payload.Error = "An unexpected internal server error occurred."
	}

	slog.Warn("Responding with error", "status_code", statusCode, "client_message", payload.Error, "internal_error", err)

	respondWithJSON(w, statusCode, payload)
}

// respondWithJSON marshals a payload and writes it with the given status code.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}
