package testsupport

import (
	"context"
	"testing"

	"playhead/internal/config"
	"playhead/internal/project"
)

// MustOpenStore opens a project.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *project.Store {
	t.Helper()

	store, err := project.OpenStore(cfg.Paths.StorePath)
	if err != nil {
		t.Fatalf("project.OpenStore: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustSave persists a document through the store for tests.
func MustSave(t testing.TB, store *project.Store, doc *project.Document) {
	t.Helper()

	if err := store.Save(context.Background(), doc); err != nil {
		t.Fatalf("store.Save: %v", err)
	}
}
