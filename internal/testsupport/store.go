package testsupport

import (
	"context"
	"testing"

	"torrup/internal/config"
	"torrup/internal/media"
	"torrup/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// InsertItem adds a queued music item for tests using the provided store.
func InsertItem(t testing.TB, store *queue.Store, sourcePath, releaseName string) *queue.Item {
	t.Helper()

	item, err := store.Insert(context.Background(), &queue.Item{
		MediaType:      media.TypeMusic,
		SourcePath:     sourcePath,
		ReleaseName:    releaseName,
		Category:       media.DefaultCategory(media.TypeMusic),
		CertaintyScore: 100,
	})
	if err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return item
}
