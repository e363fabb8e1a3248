package testsupport

import (
	"testing"

	"clipset/internal/config"
	"clipset/internal/manifest"
)

// MustOpenManifest opens a manifest.Store for tests and registers cleanup.
func MustOpenManifest(t testing.TB, cfg *config.Config) *manifest.Store {
	t.Helper()

	store, err := manifest.Open(cfg)
	if err != nil {
		t.Fatalf("manifest.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
