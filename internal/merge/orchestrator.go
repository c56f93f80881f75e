package merge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"clipgate/internal/clipstore"
	"clipgate/internal/config"
	"clipgate/internal/logging"
	"clipgate/internal/media"
	"clipgate/internal/services"
	"clipgate/internal/transcode"
)

// ArtifactPath returns the deliverable location for a post's merged output.
func ArtifactPath(cfg *config.Config, postID string) string {
	return filepath.Join(cfg.Paths.ArtifactDir, "merged_"+postID+".mp4")
}

// Orchestrator runs merge jobs, one at a time per post.
type Orchestrator struct {
	cfg        *config.Config
	store      *clipstore.Store
	transcoder *transcode.Transcoder
	fetcher    Fetcher
	logger     *slog.Logger

	mu   sync.Mutex
	jobs map[string]*jobState
}

type jobState struct {
	job  Job
	done chan struct{}
}

// New builds an orchestrator. A nil fetcher defaults to reading payloads
// straight from the store.
func New(cfg *config.Config, store *clipstore.Store, transcoder *transcode.Transcoder, fetcher Fetcher, logger *slog.Logger) *Orchestrator {
	if fetcher == nil {
		fetcher = NewStoreFetcher(store)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		cfg:        cfg,
		store:      store,
		transcoder: transcoder,
		fetcher:    fetcher,
		logger:     logging.NewComponentLogger(logger, "merge"),
		jobs:       make(map[string]*jobState),
	}
}

// Status returns the current job snapshot for a post. Posts that never merged
// report an idle job.
func (o *Orchestrator) Status(postID string) Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	if state, ok := o.jobs[postID]; ok {
		return state.job
	}
	return Job{PostID: postID, Status: StatusIdle}
}

// Wait blocks until the most recent job for the post reaches a terminal
// state, then returns its snapshot.
func (o *Orchestrator) Wait(ctx context.Context, postID string) (Job, error) {
	o.mu.Lock()
	state, ok := o.jobs[postID]
	o.mu.Unlock()
	if !ok {
		return Job{PostID: postID, Status: StatusIdle}, nil
	}
	select {
	case <-state.done:
		o.mu.Lock()
		defer o.mu.Unlock()
		return state.job, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// Start launches a merge for the post and returns the initial job snapshot.
// A post with no clips is a no-op and stays idle. A post with a merge already
// in flight is rejected; finished jobs, including failures, may be retried.
func (o *Orchestrator) Start(ctx context.Context, postID string) (Job, error) {
	if postID == "" {
		return Job{}, services.Wrap(services.ErrValidation, "merge", "start", "post ID required", nil)
	}

	clips, err := o.store.ListByPost(ctx, postID)
	if err != nil {
		return Job{}, services.Wrap(services.ErrTransient, "merge", "start", "list clips", err)
	}
	if len(clips) == 0 {
		o.logger.Info("merge skipped, no clips",
			logging.String(logging.FieldPostID, postID),
		)
		return Job{PostID: postID, Status: StatusIdle}, nil
	}

	o.mu.Lock()
	if state, ok := o.jobs[postID]; ok && !state.job.Status.Terminal() {
		o.mu.Unlock()
		return state.job, services.Wrap(services.ErrValidation, "merge", "start", "merge already running for post", nil)
	}
	state := &jobState{
		job: Job{
			PostID:    postID,
			Status:    StatusFetching,
			ClipCount: len(clips),
			StartedAt: time.Now().UTC(),
		},
		done: make(chan struct{}),
	}
	o.jobs[postID] = state
	snapshot := state.job
	o.mu.Unlock()

	// The job outlives the triggering request.
	go o.run(context.WithoutCancel(ctx), state, clips)
	return snapshot, nil
}

func (o *Orchestrator) run(ctx context.Context, state *jobState, clips []media.Clip) {
	defer close(state.done)
	postID := state.job.PostID

	o.logger.Info("merge started",
		logging.String(logging.FieldPostID, postID),
		logging.Int("clips", len(clips)),
	)

	artifact, err := o.execute(ctx, state, clips)
	o.mu.Lock()
	defer o.mu.Unlock()
	state.job.FinishedAt = time.Now().UTC()
	if err != nil {
		state.job.Status = StatusFailed
		state.job.ErrorMessage = err.Error()
		o.logger.Error("merge failed",
			logging.String(logging.FieldPostID, postID),
			logging.Error(err),
		)
		return
	}
	state.job.Status = StatusCompleted
	state.job.Percent = 100
	state.job.ArtifactPath = artifact
	o.logger.Info("merge completed",
		logging.String(logging.FieldPostID, postID),
		logging.String("artifact", artifact),
	)
}

func (o *Orchestrator) execute(ctx context.Context, state *jobState, clips []media.Clip) (string, error) {
	encoded, err := o.fetchAll(ctx, state, clips)
	if err != nil {
		return "", err
	}

	// Progress flows through a stream so slow snapshot updates never stall
	// the transcode pipeline.
	stream := transcode.NewStream(16)
	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		for p := range stream.Updates() {
			o.updateProgress(state, p)
		}
	}()

	merged, err := o.transcoder.Concatenate(ctx, encoded, stream.Callback())
	stream.Close()
	<-streamDone
	if err != nil {
		return "", err
	}

	artifact := ArtifactPath(o.cfg, state.job.PostID)
	if err := os.WriteFile(artifact, merged.Bytes, 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, "merge", "deliver", "write artifact", err)
	}
	return artifact, nil
}

// fetchAll downloads every clip payload before any processing starts. Order
// is preserved by index regardless of download completion order.
func (o *Orchestrator) fetchAll(ctx context.Context, state *jobState, clips []media.Clip) ([]media.EncodedClip, error) {
	encoded := make([]media.EncodedClip, len(clips))

	group, groupCtx := errgroup.WithContext(ctx)
	limit := o.cfg.Merge.FetchConcurrency
	if limit < 1 {
		limit = 1
	}
	group.SetLimit(limit)

	var fetched int64
	var fetchedMu sync.Mutex
	for i, clip := range clips {
		i, clip := i, clip
		group.Go(func() error {
			payload, err := o.fetcher.Fetch(groupCtx, clip)
			if err != nil {
				return fmt.Errorf("clip %d (%s): %w", i, clip.ID, err)
			}
			encoded[i] = media.EncodedClip{Bytes: payload, Kind: clip.Kind, Format: clip.Format}

			fetchedMu.Lock()
			fetched++
			percent := fetchPercentEnd * float64(fetched) / float64(len(clips))
			fetchedMu.Unlock()
			o.setJob(state, func(job *Job) {
				if job.Status == StatusFetching && percent > job.Percent {
					job.Percent = percent
				}
			})
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return encoded, nil
}

func (o *Orchestrator) updateProgress(state *jobState, p transcode.Progress) {
	status := StatusEncoding
	switch p.Stage {
	case "normalizing":
		status = StatusNormalizing
	case "concatenating":
		status = StatusConcatenating
	}
	percent := transcodePercent(p.Fraction)
	o.setJob(state, func(job *Job) {
		job.Status = status
		if percent > job.Percent {
			job.Percent = percent
		}
	})
}

func (o *Orchestrator) setJob(state *jobState, apply func(*Job)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	apply(&state.job)
}
