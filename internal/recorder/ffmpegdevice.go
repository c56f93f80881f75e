package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"clipgate/internal/config"
	"clipgate/internal/logging"
	"clipgate/internal/media"
	"clipgate/internal/services"
)

var commandContext = exec.CommandContext

var errCaptureLimit = errors.New("capture buffer limit reached")

// FFmpegDevice captures from local ALSA/V4L2 devices by running ffmpeg with
// its output on stdout. Stopping a session sends "q" on stdin so ffmpeg
// finalizes the container before exiting.
type FFmpegDevice struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewFFmpegDevice builds a capture device from the recording configuration.
func NewFFmpegDevice(cfg *config.Config, logger *slog.Logger) *FFmpegDevice {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FFmpegDevice{cfg: cfg, logger: logging.NewComponentLogger(logger, "capture-device")}
}

// Start spawns an ffmpeg capture process for the requested kind.
func (d *FFmpegDevice) Start(ctx context.Context, kind media.Kind) (CaptureSession, error) {
	if kind == media.KindVideo {
		device := strings.TrimSpace(d.cfg.Recording.VideoDevice)
		if device == "" {
			return nil, services.Wrap(services.ErrDeviceUnavailable, "record", "start", "no video device configured", nil)
		}
		if err := unix.Access(device, unix.R_OK); err != nil {
			return nil, services.Wrap(services.ErrDeviceUnavailable, "record", "start", fmt.Sprintf("video device %s not readable", device), err)
		}
	}

	cmd := commandContext(ctx, d.cfg.Transcode.FFmpegBinary, d.captureArgs(kind)...) //nolint:gosec
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrDeviceUnavailable, "record", "start", "open ffmpeg stdin", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrDeviceUnavailable, "record", "start", "open ffmpeg stdout", err)
	}
	session := &ffmpegSession{
		cmd:      cmd,
		stdin:    stdin,
		maxBytes: d.cfg.MaxCaptureBytes(),
		done:     make(chan struct{}),
	}
	cmd.Stderr = &session.stderr

	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrDeviceUnavailable, "record", "start", "spawn ffmpeg capture", err)
	}

	go session.drain(stdout)

	d.logger.Info("capture process started",
		logging.String(logging.FieldMediaKind, string(kind)),
		logging.Int("pid", cmd.Process.Pid),
	)
	return session, nil
}

func (d *FFmpegDevice) captureArgs(kind media.Kind) []string {
	audioDevice := strings.TrimSpace(d.cfg.Recording.AudioDevice)
	if audioDevice == "" {
		audioDevice = "default"
	}
	args := []string{"-v", "error", "-nostats"}
	if kind == media.KindVideo {
		args = append(args,
			"-f", "v4l2", "-i", d.cfg.Recording.VideoDevice,
			"-f", "alsa", "-i", audioDevice,
			"-c:v", "libx264", "-preset", "ultrafast",
			"-c:a", "libopus", "-b:a", "128k",
			"-f", "matroska",
		)
	} else {
		args = append(args,
			"-f", "alsa", "-i", audioDevice,
			"-c:a", "libopus", "-b:a", "128k",
			"-f", "webm",
		)
	}
	return append(args, "pipe:1")
}

type ffmpegSession struct {
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	maxBytes int64
	stderr   bytes.Buffer

	done    chan struct{}
	buf     bytes.Buffer
	copyErr error

	stopOnce sync.Once
	payload  []byte
	stopErr  error
}

// drain copies capture output into the bounded buffer. Exceeding the cap
// kills the process rather than truncating the clip.
func (s *ffmpegSession) drain(stdout io.Reader) {
	defer close(s.done)
	chunk := make([]byte, 64*1024)
	for {
		n, err := stdout.Read(chunk)
		if n > 0 {
			if s.maxBytes > 0 && int64(s.buf.Len()+n) > s.maxBytes {
				s.copyErr = errCaptureLimit
				_ = s.cmd.Process.Kill()
				return
			}
			s.buf.Write(chunk[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.copyErr = err
			}
			return
		}
	}
}

// Stop asks ffmpeg to finish, waits for it, and returns the captured bytes.
// The process is always reaped, even when the capture failed.
func (s *ffmpegSession) Stop() ([]byte, error) {
	s.stopOnce.Do(func() {
		// "q" makes ffmpeg flush and close the output container.
		_, _ = io.WriteString(s.stdin, "q")
		_ = s.stdin.Close()

		<-s.done
		waitErr := s.cmd.Wait()

		switch {
		case errors.Is(s.copyErr, errCaptureLimit):
			s.stopErr = services.Wrap(services.ErrValidation, "record", "stop", "capture exceeds configured size cap", nil)
		case s.copyErr != nil:
			s.stopErr = services.Wrap(services.ErrTransient, "record", "stop", "read capture output", s.copyErr)
		case waitErr != nil:
			detail := strings.TrimSpace(s.stderr.String())
			if detail == "" {
				detail = waitErr.Error()
			}
			s.stopErr = services.Wrap(services.ErrDeviceUnavailable, "record", "stop", detail, waitErr)
		default:
			s.payload = s.buf.Bytes()
		}
	})
	return s.payload, s.stopErr
}
