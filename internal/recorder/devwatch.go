package recorder

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"clipgate/internal/config"
	"clipgate/internal/logging"
)

// Watcher listens for udev netlink events on capture hardware so the daemon
// can report device availability without polling. Loss of the netlink socket
// is non-fatal: captures still work, availability just goes stale.
type Watcher struct {
	logger   *slog.Logger
	onChange func(action, devpath string)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewWatcher creates a hotplug watcher. onChange is invoked for every add or
// remove event on a capture device; it may be nil. Returns nil when hotplug
// watching is disabled in the configuration.
func NewWatcher(cfg *config.Config, logger *slog.Logger, onChange func(action, devpath string)) *Watcher {
	if cfg == nil || !cfg.Recording.HotplugWatch {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		logger:   logging.NewComponentLogger(logger, "device-watcher"),
		onChange: onChange,
	}
}

// Start begins listening for udev netlink events.
func (w *Watcher) Start(ctx context.Context) error {
	if w == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		w.logger.Warn("failed to connect to netlink socket; device hotplug events unavailable",
			logging.Error(err),
		)
		return nil // Non-fatal - captures still work without hotplug awareness
	}

	w.conn = conn
	w.quit = make(chan struct{})
	w.running = true

	quit := w.quit
	go w.monitorLoop(ctx, quit)

	w.logger.Info("device watcher started")
	return nil
}

// Stop shuts down the watcher.
func (w *Watcher) Stop() {
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	if w.quit != nil {
		close(w.quit)
		w.quit = nil
	}
	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}
	w.running = false

	w.logger.Info("device watcher stopped")
}

// Running reports whether the watcher is active.
func (w *Watcher) Running() bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	matcher := buildCaptureMatcher()

	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, matcher)

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			w.handleEvent(uevent)
		case err := <-errs:
			w.logger.Warn("device watcher netlink error", logging.Error(err))
		}
	}
}

// buildCaptureMatcher matches add/remove events for video4linux and sound
// class devices, the two subsystems capture hardware appears under.
func buildCaptureMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env:    map[string]string{"SUBSYSTEM": "video4linux"},
	})
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env:    map[string]string{"SUBSYSTEM": "sound"},
	})
	return rules
}

func (w *Watcher) handleEvent(uevent netlink.UEvent) {
	devpath := uevent.Env["DEVNAME"]
	if devpath == "" {
		devpath = uevent.KObj
	}
	w.logger.Info("capture device event",
		logging.String("action", string(uevent.Action)),
		logging.String("device", devpath),
	)
	if w.onChange != nil {
		w.onChange(string(uevent.Action), devpath)
	}
}
