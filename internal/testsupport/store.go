package testsupport

import (
	"context"
	"testing"

	"github.com/YatinSharma37/Anuvadika/internal/config"
	"github.com/YatinSharma37/Anuvadika/internal/runstore"
)

// MustOpenRunStore opens a runstore.Store for tests and registers cleanup.
func MustOpenRunStore(t testing.TB, cfg *config.Config) *runstore.Store {
	t.Helper()

	store, err := runstore.Open(cfg.RunStorePath())
	if err != nil {
		t.Fatalf("runstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRun inserts a pending run for tests using the provided store.
func NewRun(t testing.TB, store *runstore.Store, id, source string) *runstore.Run {
	t.Helper()

	run := &runstore.Run{ID: id, Source: source, Task: "transcribe", Model: "base"}
	if err := store.Create(context.Background(), run); err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return run
}
