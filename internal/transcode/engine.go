package transcode

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"golang.org/x/sync/singleflight"

	"clipgate/internal/config"
	"clipgate/internal/services"
)

// Engine holds the resolved ffmpeg and ffprobe executables.
type Engine struct {
	FFmpeg  string
	FFprobe string
}

// EngineLoader resolves the engine on first use. Resolution is cheap but the
// result is process-wide state, so concurrent first-use requests collapse to
// a single lookup, mirroring the scorer's model load.
type EngineLoader struct {
	cfg config.Transcode

	group singleflight.Group
	mu    sync.RWMutex
	eng   *Engine
}

// NewEngineLoader constructs a lazy loader for the configured binaries.
func NewEngineLoader(cfg config.Transcode) *EngineLoader {
	return &EngineLoader{cfg: cfg}
}

// Engine returns the cached engine, resolving it on first call. A failed
// resolution is not cached; the next call retries.
func (l *EngineLoader) Engine(ctx context.Context) (*Engine, error) {
	l.mu.RLock()
	eng := l.eng
	l.mu.RUnlock()
	if eng != nil {
		return eng, nil
	}

	value, err, _ := l.group.Do("resolve", func() (any, error) {
		l.mu.RLock()
		cached := l.eng
		l.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		ffmpeg, err := exec.LookPath(l.cfg.FFmpegBinary)
		if err != nil {
			return nil, fmt.Errorf("locate %s: %w", l.cfg.FFmpegBinary, err)
		}
		ffprobe, err := exec.LookPath(l.cfg.FFprobeBinary)
		if err != nil {
			return nil, fmt.Errorf("locate %s: %w", l.cfg.FFprobeBinary, err)
		}

		resolved := &Engine{FFmpeg: ffmpeg, FFprobe: ffprobe}
		l.mu.Lock()
		l.eng = resolved
		l.mu.Unlock()
		return resolved, nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcode", "resolve engine", "", err)
	}
	if ctx != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return value.(*Engine), nil
}
