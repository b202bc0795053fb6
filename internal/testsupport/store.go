package testsupport

import (
	"context"
	"testing"
	"time"

	"jukebox/internal/config"
	"jukebox/internal/history"
)

// MustOpenStore opens a history.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RecordPlay inserts a play for tests using the provided store.
func RecordPlay(t testing.TB, store *history.Store, albumID, track string, at time.Time) int64 {
	t.Helper()

	id, err := store.Record(context.Background(), history.Entry{AlbumID: albumID, Track: track, PlayedAt: at})
	if err != nil {
		t.Fatalf("store.Record: %v", err)
	}
	return id
}
