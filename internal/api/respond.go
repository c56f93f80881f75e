package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"clipgate/internal/clipstore"
	"clipgate/internal/services"
)

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

// serviceError maps the sentinel taxonomy onto HTTP statuses.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.Is(err, services.ErrNotRecording):
		httpError(w, http.StatusConflict, "invalid_request_error", "%v", err)
	case errors.Is(err, services.ErrDecodeFailed):
		httpError(w, http.StatusUnprocessableEntity, "decode_error", "%v", err)
	case errors.Is(err, services.ErrModelUnavailable),
		errors.Is(err, services.ErrDeviceUnavailable):
		httpError(w, http.StatusServiceUnavailable, "api_error", "%v", err)
	case errors.Is(err, clipstore.ErrClipNotFound):
		httpError(w, http.StatusNotFound, "not_found_error", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}
