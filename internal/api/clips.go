package api

import (
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"clipgate/internal/logging"
	"clipgate/internal/media"
	"clipgate/internal/merge"
)

type clipResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	OwnerID   string    `json:"owner_id"`
	Kind      string    `json:"kind"`
	Format    string    `json:"format"`
	URL       string    `json:"url"`
	MIME      string    `json:"mime"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

func clipRecord(clip media.Clip) clipResponse {
	return clipResponse{
		ID:        clip.ID,
		PostID:    clip.PostID,
		OwnerID:   clip.OwnerID,
		Kind:      string(clip.Kind),
		Format:    string(clip.Format),
		URL:       clip.URL,
		MIME:      clip.Format.MIME(),
		SizeBytes: clip.SizeBytes,
		CreatedAt: clip.CreatedAt,
	}
}

// deliverableFormat picks the stored format for a capture kind: video ships
// as faststart MP4, audio keeps the WebM/Opus container.
func deliverableFormat(kind media.Kind) media.Format {
	if kind == media.KindVideo {
		return media.FormatMP4
	}
	return media.FormatWebM
}

func (h *handler) handleClipUpload(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
		return
	}
	kind, ok := media.ParseKind(r.URL.Query().Get("kind"))
	if !ok {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "kind must be audio or video")
		return
	}
	if h.unlockRequired(postID, userID) {
		httpError(w, http.StatusForbidden, "gate_locked", "answer gate not passed for post %s", postID)
		return
	}

	payload, err := readUploadPayload(w, r, h.cfg.MaxCaptureBytes())
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "read upload: %v", err)
		return
	}
	if len(payload) == 0 {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "empty upload body")
		return
	}

	clip, err := h.encodeAndSave(r, postID, userID, media.RawClip{Bytes: payload, Kind: kind})
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, clipRecord(clip))
}

// encodeAndSave runs the shared upload/record-stop pipeline: encode the raw
// capture to its deliverable format, then persist it.
func (h *handler) encodeAndSave(r *http.Request, postID, userID string, raw media.RawClip) (media.Clip, error) {
	encoded, err := h.transcoder.Encode(r.Context(), raw, deliverableFormat(raw.Kind), nil)
	if err != nil {
		return media.Clip{}, err
	}
	clip, err := h.store.Save(r.Context(), postID, userID, encoded)
	if err != nil {
		return media.Clip{}, err
	}
	h.logger.Info("clip stored",
		logging.String(logging.FieldPostID, postID),
		logging.String(logging.FieldUserID, userID),
		logging.String(logging.FieldClipID, clip.ID),
		logging.String(logging.FieldMediaKind, string(clip.Kind)),
		logging.Int64("bytes", clip.SizeBytes),
	)
	return clip, nil
}

func readUploadPayload(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	defer func() { _ = r.Body.Close() }()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()
		return io.ReadAll(file)
	}
	return io.ReadAll(r.Body)
}

func (h *handler) handleClipList(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	clips, err := h.store.ListByPost(r.Context(), postID)
	if err != nil {
		serviceError(w, err)
		return
	}
	records := make([]clipResponse, 0, len(clips))
	for _, clip := range clips {
		records = append(records, clipRecord(clip))
	}
	writeJSON(w, http.StatusOK, map[string]any{"clips": records})
}

func (h *handler) handleClipServe(w http.ResponseWriter, r *http.Request) {
	clipID := chi.URLParam(r, "clipID")
	clip, err := h.store.Get(r.Context(), clipID)
	if err != nil {
		serviceError(w, err)
		return
	}
	w.Header().Set("Content-Type", clip.Format.MIME())
	http.ServeFile(w, r, h.store.PayloadPath(clip))
}

func (h *handler) handleArtifactServe(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	if h.merges.Status(postID).Status != merge.StatusCompleted {
		httpError(w, http.StatusNotFound, "not_found_error", "no finished merge for post %s", postID)
		return
	}
	w.Header().Set("Content-Type", media.FormatMP4.MIME())
	http.ServeFile(w, r, merge.ArtifactPath(h.cfg, postID))
}
