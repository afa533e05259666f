package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/store"
)

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to encode response", log.FieldError, err)
	}
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidArgument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrPremiumRequired):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// errorTypeFor names the error class for logs.
func errorTypeFor(status int) string {
	switch status {
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return log.ErrorTypeValidation
	case http.StatusNotFound:
		return log.ErrorTypeNotFound
	case http.StatusConflict:
		return log.ErrorTypeConflict
	case http.StatusPaymentRequired:
		return log.ErrorTypePremium
	default:
		return log.ErrorTypeInternal
	}
}

// writeError maps err to a status and writes it. Internal errors are logged
// and their text withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	body := errorResponse{Error: err.Error()}

	logger := log.FromContext(r.Context())
	fields := log.NewFields().WithOperation(op).WithError(err).WithErrorType(errorTypeFor(status))
	if status == http.StatusInternalServerError {
		logger.Fields(r.Context(), slog.LevelError, "Request failed", fields)
		body.Error = http.StatusText(status)
	} else {
		logger.Fields(r.Context(), slog.LevelDebug, "Request rejected", fields)
	}
	if status == http.StatusPaymentRequired {
		body.Message = services.UpgradeMessage
	}
	writeJSON(w, r, status, body)
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
