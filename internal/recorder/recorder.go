package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipgate/internal/config"
	"clipgate/internal/logging"
	"clipgate/internal/media"
	"clipgate/internal/services"
)

// Device opens capture sessions against physical (or fake) hardware.
// Implementations must reserve the underlying device on Start and release it
// when the returned session is stopped, regardless of capture outcome.
type Device interface {
	Start(ctx context.Context, kind media.Kind) (CaptureSession, error)
}

// CaptureSession is a single in-flight capture. Stop ends the capture and
// releases the device; it must be safe to call exactly once.
type CaptureSession interface {
	Stop() ([]byte, error)
}

// Handle identifies an active capture to its owner.
type Handle struct {
	ID        string
	Kind      media.Kind
	StartedAt time.Time
}

type activeCapture struct {
	handle  Handle
	session CaptureSession
}

// Recorder tracks active capture sessions and enforces the capture size cap.
type Recorder struct {
	device   Device
	maxBytes int64
	logger   *slog.Logger

	mu     sync.Mutex
	active map[string]*activeCapture
}

// New builds a Recorder backed by the provided device.
func New(cfg *config.Config, device Device, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Recorder{
		device:   device,
		maxBytes: cfg.MaxCaptureBytes(),
		logger:   logging.NewComponentLogger(logger, "recorder"),
		active:   make(map[string]*activeCapture),
	}
}

// Start opens a capture session for the given kind and returns a handle the
// caller must later pass to Stop. A failed device open leaves no active
// session behind.
func (r *Recorder) Start(ctx context.Context, kind media.Kind) (Handle, error) {
	session, err := r.device.Start(ctx, kind)
	if err != nil {
		r.logger.Warn("capture device open failed",
			logging.String(logging.FieldMediaKind, string(kind)),
			logging.Error(err),
		)
		if !services.IsTagged(err) {
			err = services.Wrap(services.ErrDeviceUnavailable, "record", "start", "open capture device", err)
		}
		return Handle{}, err
	}

	handle := Handle{
		ID:        uuid.NewString(),
		Kind:      kind,
		StartedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.active[handle.ID] = &activeCapture{handle: handle, session: session}
	r.mu.Unlock()

	r.logger.Info("capture started",
		logging.String("handle_id", handle.ID),
		logging.String(logging.FieldMediaKind, string(kind)),
	)
	return handle, nil
}

// Stop ends the capture identified by handleID and returns the raw clip.
// The handle is consumed even when the capture failed: the device is released
// and a second Stop for the same handle reports ErrNotRecording.
func (r *Recorder) Stop(ctx context.Context, handleID string) (media.RawClip, error) {
	r.mu.Lock()
	capture, ok := r.active[handleID]
	if ok {
		delete(r.active, handleID)
	}
	r.mu.Unlock()
	if !ok {
		return media.RawClip{}, services.Wrap(services.ErrNotRecording, "record", "stop", "no active capture for handle", nil)
	}

	payload, err := capture.session.Stop()
	if err != nil {
		r.logger.Warn("capture failed",
			logging.String("handle_id", handleID),
			logging.String(logging.FieldMediaKind, string(capture.handle.Kind)),
			logging.Error(err),
		)
		if !services.IsTagged(err) {
			err = services.Wrap(services.ErrTransient, "record", "stop", "finish capture", err)
		}
		return media.RawClip{}, err
	}

	if r.maxBytes > 0 && int64(len(payload)) > r.maxBytes {
		return media.RawClip{}, services.Wrap(services.ErrValidation, "record", "stop", "capture exceeds configured size cap", nil)
	}

	r.logger.Info("capture stopped",
		logging.String("handle_id", handleID),
		logging.String(logging.FieldMediaKind, string(capture.handle.Kind)),
		logging.Int("bytes", len(payload)),
	)
	return media.RawClip{Bytes: payload, Kind: capture.handle.Kind}, nil
}

// Active reports the number of in-flight capture sessions.
func (r *Recorder) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
