package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/solohub/braind/pkg/schema"
)

// envelope is the response shape for every API endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeData writes a success envelope.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// writeMessage writes a success envelope with a message and optional data.
func writeMessage(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: msg, Data: data})
}

// writeErrorMsg writes a failure envelope with an explicit message.
func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

// writeError maps an error to a status code and failure envelope. Unexpected
// errors are logged with full detail and surfaced as a generic message so
// internals never leak to the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var berr *schema.BrainError
	if errors.As(err, &berr) {
		switch berr.Code {
		case schema.ErrCodeValidation, schema.ErrCodeUnsupportedAction:
			writeErrorMsg(w, http.StatusBadRequest, berr.Message)
			return
		case schema.ErrCodeNotFound:
			writeErrorMsg(w, http.StatusNotFound, berr.Message)
			return
		case schema.ErrCodeConflict, schema.ErrCodeInvalidTransition:
			writeErrorMsg(w, http.StatusConflict, berr.Message)
			return
		}
	}

	logger.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)
	writeErrorMsg(w, http.StatusInternalServerError, "internal server error")
}
