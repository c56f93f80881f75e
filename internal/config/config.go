package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	ScratchDir  string `toml:"scratch_dir"`
	ArtifactDir string `toml:"artifact_dir"`
	LogDir      string `toml:"log_dir"`
	APIBind     string `toml:"api_bind"`
	// BaseURL is the externally reachable prefix for clip URLs issued by the
	// store. Relative store URLs are resolved against it when fetching.
	BaseURL string `toml:"base_url"`
}

// Answer contains configuration for the answer gate and its embedding backend.
type Answer struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	MaxAttempts         int     `toml:"max_attempts"`
	EmbeddingBaseURL    string  `toml:"embedding_base_url"`
	EmbeddingAPIKey     string  `toml:"embedding_api_key"`
	EmbeddingModel      string  `toml:"embedding_model"`
	RequestTimeout      int     `toml:"request_timeout"`
	// GateUploads requires a correct gate outcome before clips may be
	// recorded or uploaded for a post. Disable for headless ingestion.
	GateUploads bool `toml:"gate_uploads"`
}

// Recording contains configuration for local capture devices.
type Recording struct {
	VideoDevice string `toml:"video_device"`
	AudioDevice string `toml:"audio_device"`
	// MaxCaptureMiB caps the in-memory capture buffer. A capture exceeding
	// the cap aborts instead of truncating.
	MaxCaptureMiB int  `toml:"max_capture_mib"`
	HotplugWatch  bool `toml:"hotplug_watch"`
}

// Transcode contains configuration for the ffmpeg engine.
type Transcode struct {
	FFmpegBinary      string `toml:"ffmpeg_binary"`
	FFprobeBinary     string `toml:"ffprobe_binary"`
	AudioBitrateKbps  int    `toml:"audio_bitrate_kbps"`
	ScratchMinFreeMiB int    `toml:"scratch_min_free_mib"`
	EncodeTimeout     int    `toml:"encode_timeout"`
}

// Merge contains configuration for merge orchestration.
type Merge struct {
	FetchConcurrency int `toml:"fetch_concurrency"`
	FetchTimeout     int `toml:"fetch_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clipgate.
//
// Configuration sections by subsystem:
//   - Paths: directories and API bind address
//   - Answer: similarity gating and embedding backend connection
//   - Recording: capture devices and buffer bounds
//   - Transcode: ffmpeg/ffprobe binaries and encode settings
//   - Merge: clip fetch concurrency for merge jobs
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Answer    Answer    `toml:"answer"`
	Recording Recording `toml:"recording"`
	Transcode Transcode `toml:"transcode"`
	Merge     Merge     `toml:"merge"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipgate/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clipgate.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ScratchDir, c.Paths.ArtifactDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the embedded sample configuration to the given path.
func CreateSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// MaxCaptureBytes converts the configured capture cap to bytes.
func (c *Config) MaxCaptureBytes() int64 {
	return int64(c.Recording.MaxCaptureMiB) * 1024 * 1024
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
