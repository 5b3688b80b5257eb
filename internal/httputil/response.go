package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tendant/nexus-crm/pkg/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// DecodeJSON reads the request body into v. Unknown fields are rejected so
// that typos in patch bodies are not silently ignored.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// WriteError maps a service error to a status code. Unexpected errors are
// logged and reported as a generic 500.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if ve, ok := domain.AsValidationError(err); ok {
		JSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: ve.Fields})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		Error(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidToken):
		Error(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateEmail):
		Error(w, http.StatusConflict, "email already registered")
	case errors.Is(err, domain.ErrInvalidStage):
		Error(w, http.StatusBadRequest, "invalid deal stage")
	default:
		if logger != nil {
			logger.Error("request failed", "error", err)
		}
		Error(w, http.StatusInternalServerError, "internal server error")
	}
}
