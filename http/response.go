package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/relapse"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Details: details,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, err error) {
	var rerr *relapse.Error
	hasMessage := errors.As(err, &rerr)

	switch {
	case errors.Is(err, relapse.ErrInvalidInput):
		slog.Debug("request rejected", "error", err)
		if hasMessage {
			WriteError(w, http.StatusBadRequest, rerr.Message, rerr.Details)
			return
		}
		WriteError(w, http.StatusBadRequest, "Invalid input", "")
		return

	case errors.Is(err, relapse.ErrNotFound):
		if hasMessage {
			WriteError(w, http.StatusNotFound, rerr.Message, rerr.Details)
			return
		}
		WriteError(w, http.StatusNotFound, "Not found", "")
		return

	case errors.Is(err, relapse.ErrNotConfigured), errors.Is(err, relapse.ErrStorage):
		slog.Error("request error", "error", err)
		if hasMessage {
			WriteError(w, http.StatusInternalServerError, rerr.Message, rerr.Details)
			return
		}
		WriteError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	slog.Error("request error", "error", err)
	WriteError(w, http.StatusInternalServerError, "Internal server error", "")
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
