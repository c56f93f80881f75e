package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"clipgate/internal/answergate"
	"clipgate/internal/clipstore"
	"clipgate/internal/config"
	"clipgate/internal/logging"
	"clipgate/internal/merge"
	"clipgate/internal/recorder"
	"clipgate/internal/transcode"
)

// Deps carries the services the HTTP layer fronts.
type Deps struct {
	Config     *config.Config
	Gates      *answergate.Registry
	Recorder   *recorder.Recorder
	Transcoder *transcode.Transcoder
	Store      *clipstore.Store
	Merges     *merge.Orchestrator
	Logger     *slog.Logger
}

type handler struct {
	cfg        *config.Config
	gates      *answergate.Registry
	recorder   *recorder.Recorder
	transcoder *transcode.Transcoder
	store      *clipstore.Store
	merges     *merge.Orchestrator
	logger     *slog.Logger
}

// NewHandler builds the daemon's HTTP handler.
func NewHandler(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	h := &handler{
		cfg:        deps.Config,
		gates:      deps.Gates,
		recorder:   deps.Recorder,
		transcoder: deps.Transcoder,
		store:      deps.Store,
		merges:     deps.Merges,
		logger:     logging.NewComponentLogger(logger, "api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/healthz", h.handleHealth)

	r.Route("/api/posts/{postID}", func(r chi.Router) {
		r.Post("/answer", h.handleAnswerSubmit)
		r.Get("/answer", h.handleAnswerState)
		r.Post("/clips", h.handleClipUpload)
		r.Get("/clips", h.handleClipList)
		r.Post("/record", h.handleRecordStart)
		r.Post("/record/stop", h.handleRecordStop)
		r.Post("/merge", h.handleMergeStart)
		r.Get("/merge", h.handleMergeStatus)
	})

	r.Get("/clips/{clipID}", h.handleClipServe)
	r.Get("/artifacts/{postID}", h.handleArtifactServe)

	return r
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info("request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("elapsed", time.Since(start)),
		)
	})
}

// unlockRequired reports whether clip creation for (post, user) is blocked by
// the answer gate.
func (h *handler) unlockRequired(postID, userID string) bool {
	if !h.cfg.Answer.GateUploads {
		return false
	}
	return !h.gates.Unlocked(postID, userID)
}
