package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"finplan/internal/core"
	"finplan/internal/log"
	"finplan/internal/projection"
	"finplan/internal/services"
	"finplan/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v with status, or a 500 error body when v cannot be encoded.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentHTTP).ErrorContext(ctx, "Failed to encode response",
			log.FieldError, err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: http.StatusText(status)})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// writeError maps err to a status code and writes a JSON error body.
// Server errors are logged and their detail is not echoed to the caller.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		log.LogError(ctx, log.FromContext(ctx).WithComponent(log.ComponentHTTP), "Request failed", err, log.OpProject, nil)
		msg = http.StatusText(status)
	}
	writeJSON(ctx, w, status, errorResponse{Error: msg})
}

func errorStatus(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, projection.ErrInvalidInput),
		errors.Is(err, core.ErrUnknownFrequency),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidRate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrMessagingUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
