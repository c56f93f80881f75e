package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"clipgate/internal/answergate"
	"clipgate/internal/api"
	"clipgate/internal/clipstore"
	"clipgate/internal/config"
	"clipgate/internal/logging"
	"clipgate/internal/merge"
	"clipgate/internal/recorder"
	"clipgate/internal/similarity"
	"clipgate/internal/transcode"
)

// Daemon owns the long-running service graph: the clip store, the answer
// gate registry, the recorder, the merge orchestrator, and the HTTP server
// that fronts them.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *clipstore.Store
	recorder *recorder.Recorder
	merges   *merge.Orchestrator
	server   *http.Server
	watcher  *recorder.Watcher

	lockPath string
	lock     *flock.Flock
	running  atomic.Bool
	cancel   context.CancelFunc
	serveErr chan error
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	Bind           string
	LockFilePath   string
	ClipDBPath     string
	ActiveCaptures int
	WatcherRunning bool
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := clipstore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open clip store: %w", err)
	}

	scorer := similarity.NewScorer(func(context.Context) (similarity.Engine, error) {
		return similarity.NewOpenAIEngine(cfg.Answer)
	})
	gates := answergate.NewRegistry(cfg.Answer, scorer, logger)
	transcoder := transcode.New(cfg, logger)
	rec := recorder.New(cfg, recorder.NewFFmpegDevice(cfg, logger), logger)
	merges := merge.New(cfg, store, transcoder, nil, logger)

	handler := api.NewHandler(api.Deps{
		Config:     cfg,
		Gates:      gates,
		Recorder:   rec,
		Transcoder: transcoder,
		Store:      store,
		Merges:     merges,
		Logger:     logger,
	})

	lockPath := filepath.Join(cfg.Paths.DataDir, "clipgate.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		recorder: rec,
		merges:   merges,
		server:   &http.Server{Addr: cfg.Paths.APIBind, Handler: handler},
		watcher:  recorder.NewWatcher(cfg, logger, nil),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and begins serving the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another clipgate daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.watcher.Start(runCtx); err != nil {
		// Watcher start is advisory; it logs and the daemon carries on.
		d.logger.Warn("device watcher failed to start", logging.Error(err))
	}

	d.serveErr = make(chan error, 1)
	go func() {
		err := d.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.serveErr <- err
		}
		close(d.serveErr)
	}()

	d.running.Store(true)
	d.logger.Info("clipgate daemon started",
		logging.String("bind", d.cfg.Paths.APIBind),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Wait blocks until the context ends or the HTTP server fails.
func (d *Daemon) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case err, ok := <-d.serveErr:
		if !ok {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	}
}

// Stop shuts down the API server and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		d.logger.Warn("api server shutdown", logging.Error(err))
	}

	d.watcher.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("clipgate daemon stopped")
}

// Close stops the daemon and releases held resources.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Status reports current runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:        d.running.Load(),
		Bind:           d.cfg.Paths.APIBind,
		LockFilePath:   d.lockPath,
		ClipDBPath:     filepath.Join(d.cfg.Paths.DataDir, "clips.db"),
		ActiveCaptures: d.recorder.Active(),
		WatcherRunning: d.watcher.Running(),
	}
}
