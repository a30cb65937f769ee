package testsupport

import (
	"testing"

	"scrollback/internal/checkpoint"
	"scrollback/internal/config"
)

// MustOpenStore opens the checkpoint store for cfg and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *checkpoint.Store {
	t.Helper()

	store, err := checkpoint.Open(cfg.CheckpointPath())
	if err != nil {
		t.Fatalf("checkpoint.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
