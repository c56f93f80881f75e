package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipgate/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be reported missing")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Answer.SimilarityThreshold != 0.6 {
		t.Fatalf("unexpected default threshold: %v", cfg.Answer.SimilarityThreshold)
	}
	if cfg.Answer.MaxAttempts != 2 {
		t.Fatalf("unexpected default max attempts: %d", cfg.Answer.MaxAttempts)
	}
	if cfg.Merge.FetchConcurrency != 4 {
		t.Fatalf("unexpected default fetch concurrency: %d", cfg.Merge.FetchConcurrency)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
base_url = "http://media.example/"

[answer]
similarity_threshold = 0.75
max_attempts = 3

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Answer.SimilarityThreshold != 0.75 {
		t.Fatalf("threshold not applied: %v", cfg.Answer.SimilarityThreshold)
	}
	if cfg.Answer.MaxAttempts != 3 {
		t.Fatalf("max attempts not applied: %d", cfg.Answer.MaxAttempts)
	}
	if cfg.Paths.BaseURL != "http://media.example" {
		t.Fatalf("base url not trimmed: %q", cfg.Paths.BaseURL)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("log format not lowered: %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsInvalidThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[answer]\nsimilarity_threshold = 1.5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for out-of-range threshold")
	}
}

func TestEmbeddingKeyEnvFallback(t *testing.T) {
	t.Setenv("CLIPGATE_EMBEDDING_API_KEY", "from-env")
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Answer.EmbeddingAPIKey != "from-env" {
		t.Fatalf("expected env fallback, got %q", cfg.Answer.EmbeddingAPIKey)
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	expanded, err := config.ExpandPath("~/clips")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if !strings.HasPrefix(expanded, home) {
		t.Fatalf("expected %q under %q", expanded, home)
	}
}

func TestSampleConfigNotEmpty(t *testing.T) {
	if strings.TrimSpace(config.SampleConfig()) == "" {
		t.Fatal("embedded sample config is empty")
	}
}
