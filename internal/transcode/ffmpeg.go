package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// runFFmpeg executes ffmpeg with machine-readable progress on stdout and
// diagnostics on stderr. Cancellation is not supported mid-run by callers;
// the context is plumbed for process cleanup if the daemon itself dies.
func runFFmpeg(ctx context.Context, binary string, args []string, stage string, totalSeconds float64, emit ProgressFunc) error {
	full := append([]string{"-v", "error", "-nostats", "-progress", "pipe:1", "-y"}, args...)
	cmd := commandContext(ctx, binary, full...) //nolint:gosec

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	scanErr := scanProgress(stdout, stage, totalSeconds, emit)

	if err := cmd.Wait(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("ffmpeg %s: %w: %s", stage, err, detail)
		}
		return fmt.Errorf("ffmpeg %s: %w", stage, err)
	}
	if scanErr != nil {
		return fmt.Errorf("read ffmpeg progress: %w", scanErr)
	}
	return nil
}
