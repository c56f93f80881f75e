package testsupport

import (
	"testing"

	"clipgate/internal/clipstore"
	"clipgate/internal/config"
)

// MustOpenStore opens a clip store against a fresh temp-dir config and closes
// it when the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *clipstore.Store {
	t.Helper()
	store, err := clipstore.Open(cfg)
	if err != nil {
		t.Fatalf("open clip store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close clip store: %v", err)
		}
	})
	return store
}
