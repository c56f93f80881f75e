package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"clipgate/internal/answergate"
	"clipgate/internal/logging"
)

type answerRequest struct {
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
	Reference string `json:"reference"`
}

type gateResultResponse struct {
	State          string  `json:"state"`
	Outcome        string  `json:"outcome,omitempty"`
	Score          float64 `json:"score"`
	AttemptIndex   int     `json:"attempt_index"`
	AttemptsLeft   int     `json:"attempts_left"`
	RevealedAnswer string  `json:"revealed_answer,omitempty"`
}

func gateResult(result answergate.Result) gateResultResponse {
	return gateResultResponse{
		State:          string(result.State),
		Outcome:        string(result.Outcome),
		Score:          result.Score,
		AttemptIndex:   result.AttemptIndex,
		AttemptsLeft:   result.AttemptsLeft,
		RevealedAnswer: result.RevealedAnswer,
	}
}

func (h *handler) handleAnswerSubmit(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
		return
	}
	if strings.TrimSpace(req.Reference) == "" {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "reference is required")
		return
	}

	gate := h.gates.Gate(postID, req.UserID, req.Reference)
	result, err := gate.Submit(r.Context(), req.Text)
	if err != nil {
		h.logger.Warn("answer submission failed",
			logging.String(logging.FieldPostID, postID),
			logging.String(logging.FieldUserID, req.UserID),
			logging.Error(err),
		)
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gateResult(result))
}

func (h *handler) handleAnswerState(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
		return
	}

	gate, ok := h.gates.Lookup(postID, userID)
	if !ok {
		writeJSON(w, http.StatusOK, gateResultResponse{
			State:        string(answergate.StateAwaitingInput),
			AttemptsLeft: h.cfg.Answer.MaxAttempts,
		})
		return
	}
	writeJSON(w, http.StatusOK, gateResult(gate.Snapshot()))
}
