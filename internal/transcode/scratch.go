package transcode

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"clipgate/internal/services"
)

// scratch is a per-operation working directory under the configured scratch
// root. Removed on both success and failure paths.
type scratch struct {
	dir string
}

// newScratch verifies the scratch root is writable with enough free space,
// then creates a unique operation directory inside it.
func newScratch(root string, minFreeMiB int, op string) (*scratch, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcode", "scratch", "create scratch root", err)
	}
	if err := unix.Access(root, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcode", "scratch", fmt.Sprintf("scratch root %s not accessible", root), err)
	}
	if minFreeMiB > 0 {
		var stat unix.Statfs_t
		if err := unix.Statfs(root, &stat); err == nil {
			freeMiB := stat.Bavail * uint64(stat.Bsize) / (1024 * 1024)
			if freeMiB < uint64(minFreeMiB) {
				return nil, services.Wrap(services.ErrConfiguration, "transcode", "scratch",
					fmt.Sprintf("scratch root %s has %d MiB free, need %d", root, freeMiB, minFreeMiB), nil)
			}
		}
	}

	dir, err := os.MkdirTemp(root, op+"-")
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcode", "scratch", "create operation directory", err)
	}
	return &scratch{dir: dir}, nil
}

// Path returns a file path inside the scratch directory.
func (s *scratch) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Write stores bytes into the scratch directory and returns the full path.
func (s *scratch) Write(name string, data []byte) (string, error) {
	path := s.Path(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write scratch file %s: %w", name, err)
	}
	return path, nil
}

// Cleanup removes the scratch directory and everything in it.
func (s *scratch) Cleanup() {
	if s == nil || s.dir == "" {
		return
	}
	_ = os.RemoveAll(s.dir)
}
