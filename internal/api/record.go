package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"clipgate/internal/media"
)

type recordStartRequest struct {
	UserID string `json:"user_id"`
	Kind   string `json:"kind"`
}

type recordStartResponse struct {
	HandleID  string    `json:"handle_id"`
	Kind      string    `json:"kind"`
	StartedAt time.Time `json:"started_at"`
}

type recordStopRequest struct {
	UserID   string `json:"user_id"`
	HandleID string `json:"handle_id"`
}

func (h *handler) handleRecordStart(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	var req recordStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
		return
	}
	kind, ok := media.ParseKind(req.Kind)
	if !ok {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "kind must be audio or video")
		return
	}
	if h.unlockRequired(postID, req.UserID) {
		httpError(w, http.StatusForbidden, "gate_locked", "answer gate not passed for post %s", postID)
		return
	}

	handle, err := h.recorder.Start(r.Context(), kind)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, recordStartResponse{
		HandleID:  handle.ID,
		Kind:      string(handle.Kind),
		StartedAt: handle.StartedAt,
	})
}

func (h *handler) handleRecordStop(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	var req recordStopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.HandleID) == "" {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id and handle_id are required")
		return
	}

	raw, err := h.recorder.Stop(r.Context(), req.HandleID)
	if err != nil {
		serviceError(w, err)
		return
	}
	clip, err := h.encodeAndSave(r, postID, req.UserID, raw)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, clipRecord(clip))
}
