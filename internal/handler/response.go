package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"cafehub/internal/apperr"
	"cafehub/internal/service"
)

// envelope is the wire shape of every API response.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// writeError maps the domain error taxonomy onto HTTP codes. Unknown
// errors become a generic 500 so internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case apperr.IsValidation(err):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.Is(err, apperr.ErrInvalidTransition):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, apperr.ErrUpstream):
		status = http.StatusBadGateway
		message = err.Error()
	case errors.Is(err, apperr.ErrUnauthorized), errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		message = "invalid credentials"
	case errors.Is(err, apperr.ErrInsufficientPoints):
		status = http.StatusPaymentRequired
		message = err.Error()
	case errors.Is(err, service.ErrOTPMismatch), errors.Is(err, service.ErrOTPExpired):
		status = http.StatusUnauthorized
		message = err.Error()
	default:
		slog.Error("unhandled error", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(envelope{Success: false, Error: message}); encErr != nil {
		slog.Error("response encode failed", "error", encErr)
	}
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("body", "invalid json")
	}
	return nil
}
