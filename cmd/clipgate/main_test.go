package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Keep config resolution and directory creation inside the test sandbox.
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootRegistersSubcommands(t *testing.T) {
	cmd := newRootCommand()
	want := []string{"serve", "status", "answer", "record", "clips", "merge", "config"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "clipgate.toml")

	out, err := execute(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output does not mention target: %q", out)
	}

	// A second init without --overwrite refuses to clobber the file.
	if _, err := execute(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error for existing config file")
	}
	if _, err := execute(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite init: %v", err)
	}
}

func TestAnswerRequiresReference(t *testing.T) {
	if _, err := execute(t, "answer", "post-1", "my guess", "--server", "http://127.0.0.1:1"); err == nil {
		t.Fatal("expected error without --reference")
	}
}

func TestAnswerRendersGateResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/posts/post-1/answer" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"state":         "correct",
			"score":         0.92,
			"attempt_index": 1,
		})
	}))
	defer server.Close()

	out, err := execute(t, "answer", "post-1", "a sparrow", "--reference", "sparrow", "--server", server.URL)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !strings.Contains(out, "correct") {
		t.Fatalf("output = %q", out)
	}
}

func TestClipsRendersListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"clips": []map[string]any{
				{"id": "abc-123", "kind": "video", "format": "mp4", "size_bytes": 2048, "created_at": "2026-08-29T10:00:00Z"},
			},
		})
	}))
	defer server.Close()

	out, err := execute(t, "clips", "post-1", "--server", server.URL)
	if err != nil {
		t.Fatalf("clips: %v", err)
	}
	if !strings.Contains(out, "abc-123") || !strings.Contains(out, "2.0 KiB") {
		t.Fatalf("output = %q", out)
	}
}

func TestStatusReportsDaemonDown(t *testing.T) {
	if _, err := execute(t, "status", "--server", "http://127.0.0.1:1"); err == nil {
		t.Fatal("expected error when daemon is unreachable")
	}
}

func TestMergeStatusRendersSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"post_id": "post-1", "status": "completed", "percent": 100,
			"clip_count": 3, "artifact_path": "/tmp/merged_post-1.mp4",
		})
	}))
	defer server.Close()

	out, err := execute(t, "merge", "post-1", "--status", "--server", server.URL)
	if err != nil {
		t.Fatalf("merge --status: %v", err)
	}
	if !strings.Contains(out, "merged_post-1.mp4") {
		t.Fatalf("output = %q", out)
	}
}
