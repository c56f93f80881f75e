package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"clipgate/internal/merge"
	"clipgate/internal/services"
)

type mergeJobResponse struct {
	PostID       string     `json:"post_id"`
	Status       string     `json:"status"`
	Percent      float64    `json:"percent"`
	ClipCount    int        `json:"clip_count"`
	ArtifactPath string     `json:"artifact_path,omitempty"`
	Error        string     `json:"error,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

func mergeJob(job merge.Job) mergeJobResponse {
	resp := mergeJobResponse{
		PostID:       job.PostID,
		Status:       string(job.Status),
		Percent:      job.Percent,
		ClipCount:    job.ClipCount,
		ArtifactPath: job.ArtifactPath,
		Error:        job.ErrorMessage,
	}
	if !job.StartedAt.IsZero() {
		started := job.StartedAt
		resp.StartedAt = &started
	}
	if !job.FinishedAt.IsZero() {
		finished := job.FinishedAt
		resp.FinishedAt = &finished
	}
	return resp
}

func (h *handler) handleMergeStart(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	job, err := h.merges.Start(r.Context(), postID)
	if err != nil {
		if errors.Is(err, services.ErrValidation) && !job.Status.Terminal() && job.Status != merge.StatusIdle {
			// A merge is already in flight for this post.
			writeJSON(w, http.StatusConflict, mergeJob(job))
			return
		}
		serviceError(w, err)
		return
	}
	if job.Status == merge.StatusIdle {
		// No clips stored for the post; nothing to merge.
		writeJSON(w, http.StatusOK, mergeJob(job))
		return
	}
	writeJSON(w, http.StatusAccepted, mergeJob(job))
}

func (h *handler) handleMergeStatus(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	writeJSON(w, http.StatusOK, mergeJob(h.merges.Status(postID)))
}
