package recorder_test

import (
	"context"
	"errors"
	"testing"

	"clipgate/internal/config"
	"clipgate/internal/logging"
	"clipgate/internal/media"
	"clipgate/internal/recorder"
	"clipgate/internal/services"
	"clipgate/internal/testsupport"
)

type fakeSession struct {
	payload  []byte
	err      error
	stopped  bool
	released *bool
}

func (s *fakeSession) Stop() ([]byte, error) {
	s.stopped = true
	if s.released != nil {
		*s.released = true
	}
	return s.payload, s.err
}

type fakeDevice struct {
	startErr error
	sessions []*fakeSession
	next     *fakeSession
}

func (d *fakeDevice) Start(context.Context, media.Kind) (recorder.CaptureSession, error) {
	if d.startErr != nil {
		return nil, d.startErr
	}
	session := d.next
	if session == nil {
		session = &fakeSession{payload: []byte("capture")}
	}
	d.sessions = append(d.sessions, session)
	return session, nil
}

func newRecorder(t *testing.T, device recorder.Device, opts ...testsupport.ConfigOption) (*recorder.Recorder, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	return recorder.New(cfg, device, logging.NewNop()), cfg
}

func TestStartStopReturnsRawClip(t *testing.T) {
	device := &fakeDevice{next: &fakeSession{payload: []byte("audio-bytes")}}
	rec, _ := newRecorder(t, device)

	handle, err := rec.Start(context.Background(), media.KindAudio)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if handle.ID == "" {
		t.Fatal("expected non-empty handle ID")
	}
	if rec.Active() != 1 {
		t.Fatalf("Active = %d, want 1", rec.Active())
	}

	clip, err := rec.Stop(context.Background(), handle.ID)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if clip.Kind != media.KindAudio {
		t.Fatalf("clip kind = %s, want audio", clip.Kind)
	}
	if string(clip.Bytes) != "audio-bytes" {
		t.Fatalf("clip bytes = %q", clip.Bytes)
	}
	if rec.Active() != 0 {
		t.Fatalf("Active after stop = %d, want 0", rec.Active())
	}
}

func TestStopUnknownHandleReportsNotRecording(t *testing.T) {
	rec, _ := newRecorder(t, &fakeDevice{})

	if _, err := rec.Stop(context.Background(), "missing"); !errors.Is(err, services.ErrNotRecording) {
		t.Fatalf("err = %v, want ErrNotRecording", err)
	}
}

func TestDoubleStopReportsNotRecording(t *testing.T) {
	rec, _ := newRecorder(t, &fakeDevice{})

	handle, err := rec.Start(context.Background(), media.KindVideo)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := rec.Stop(context.Background(), handle.ID); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if _, err := rec.Stop(context.Background(), handle.ID); !errors.Is(err, services.ErrNotRecording) {
		t.Fatalf("second Stop err = %v, want ErrNotRecording", err)
	}
}

func TestStartDeviceFailureLeavesNoSession(t *testing.T) {
	device := &fakeDevice{startErr: errors.New("permission denied")}
	rec, _ := newRecorder(t, device)

	if _, err := rec.Start(context.Background(), media.KindVideo); !errors.Is(err, services.ErrDeviceUnavailable) {
		t.Fatalf("err = %v, want ErrDeviceUnavailable", err)
	}
	if rec.Active() != 0 {
		t.Fatalf("Active = %d, want 0", rec.Active())
	}
}

func TestStopFailureReleasesHandle(t *testing.T) {
	released := false
	device := &fakeDevice{next: &fakeSession{err: errors.New("stream cut"), released: &released}}
	rec, _ := newRecorder(t, device)

	handle, err := rec.Start(context.Background(), media.KindAudio)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := rec.Stop(context.Background(), handle.ID); err == nil {
		t.Fatal("expected stop error")
	}
	if !released {
		t.Fatal("device session not released after failed stop")
	}
	if _, err := rec.Stop(context.Background(), handle.ID); !errors.Is(err, services.ErrNotRecording) {
		t.Fatalf("stop after failure err = %v, want ErrNotRecording", err)
	}
}

func TestCaptureExceedingCapFails(t *testing.T) {
	oversized := make([]byte, 2*1024*1024)
	device := &fakeDevice{next: &fakeSession{payload: oversized}}
	rec, _ := newRecorder(t, device, func(cfg *config.Config) {
		cfg.Recording.MaxCaptureMiB = 1
	})

	handle, err := rec.Start(context.Background(), media.KindVideo)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := rec.Stop(context.Background(), handle.ID); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestWatcherDisabledByConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, func(cfg *config.Config) {
		cfg.Recording.HotplugWatch = false
	})
	if w := recorder.NewWatcher(cfg, logging.NewNop(), nil); w != nil {
		t.Fatal("expected nil watcher when hotplug watching is disabled")
	}
	// nil watcher methods are no-ops
	var w *recorder.Watcher
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("nil watcher Start: %v", err)
	}
	w.Stop()
	if w.Running() {
		t.Fatal("nil watcher should not report running")
	}
}
