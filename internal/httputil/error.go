package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/matchday/internal/match"
)

type errorBody struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal Server Error"})
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	WriteJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	WriteJSON(w, http.StatusNotFound, errorBody{Error: msg})
}

// StatusOf maps an engine error kind to an HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, match.ErrMatchLocked):
		return http.StatusConflict
	case errors.Is(err, match.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, match.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, match.ErrTransport):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Error writes err with the status of its kind. Unclassified errors are logged
// and their message is not exposed.
func Error(w http.ResponseWriter, msg string, err error) {
	status := StatusOf(err)
	switch status {
	case http.StatusInternalServerError:
		InternalServerError(w, msg, err)
		return
	case http.StatusNotFound:
		NotFound(w, err.Error(), nil)
		return
	case http.StatusBadGateway:
		slog.Error(msg, "error", err)
	default:
		slog.Warn(msg, "error", err)
	}
	WriteJSON(w, status, errorBody{Error: err.Error()})
}
