// Package testsupport provides shared constructors for package tests: temp
// directory configs, fake ffmpeg/ffprobe tools, and store helpers.
package testsupport

import (
	"path/filepath"
	"testing"

	"clipgate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfg.Paths.ArtifactDir = filepath.Join(base, "artifacts")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Transcode.ScratchMinFreeMiB = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithFakeTools points the transcode engine at stub ffmpeg/ffprobe scripts.
func WithFakeTools(t testing.TB) ConfigOption {
	return func(cfg *config.Config) {
		ffmpeg, ffprobe := FakeTools(t)
		cfg.Transcode.FFmpegBinary = ffmpeg
		cfg.Transcode.FFprobeBinary = ffprobe
	}
}
