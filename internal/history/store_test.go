package history_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"jukebox/internal/history"
	"jukebox/internal/logging"
	"jukebox/internal/testsupport"
)

func TestOpenCreatesSchemaAndRecordsPlays(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	testsupport.RecordPlay(t, store, "A", "a1.mp3", base)
	testsupport.RecordPlay(t, store, "A", "a2.mp3", base.Add(time.Minute))
	testsupport.RecordPlay(t, store, "B", "b1.mp3", base.Add(2*time.Minute))

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].Track != "b1.mp3" || recent[1].Track != "a2.mp3" {
		t.Fatalf("unexpected order: %+v", recent)
	}
	if !recent[0].PlayedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("timestamp not preserved: %s", recent[0].PlayedAt)
	}

	count, err := store.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("Count = %d, %v; want 3", count, err)
	}
}

func TestRecordRequiresTrack(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := store.Record(context.Background(), history.Entry{AlbumID: "A"}); err == nil {
		t.Fatal("expected error when track missing")
	}
}

func TestTopTracksOrdersByPlayCount(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	testsupport.RecordPlay(t, store, "A", "a1.mp3", base)
	testsupport.RecordPlay(t, store, "B", "b1.mp3", base.Add(time.Second))
	testsupport.RecordPlay(t, store, "B", "b1.mp3", base.Add(2*time.Second))
	testsupport.RecordPlay(t, store, "A", "a2.mp3", base.Add(3*time.Second))

	top, err := store.TopTracks(context.Background(), 2)
	if err != nil {
		t.Fatalf("TopTracks: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 stats, got %d", len(top))
	}
	if top[0].Track != "b1.mp3" || top[0].Plays != 2 {
		t.Fatalf("unexpected leader: %+v", top[0])
	}
	if !top[0].LastPlayed.Equal(base.Add(2 * time.Second)) {
		t.Fatalf("unexpected last played: %s", top[0].LastPlayed)
	}
	if top[1].Track != "a2.mp3" {
		t.Fatalf("ties should favour the most recent play, got %+v", top[1])
	}
}

func TestPruneRemovesOldPlays(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	cutoff := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	testsupport.RecordPlay(t, store, "A", "old.mp3", cutoff.Add(-time.Hour))
	testsupport.RecordPlay(t, store, "A", "edge.mp3", cutoff.Add(-time.Nanosecond))
	testsupport.RecordPlay(t, store, "A", "new.mp3", cutoff.Add(time.Hour))

	removed, err := store.Prune(ctx, cutoff)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Track != "new.mp3" {
		t.Fatalf("unexpected remaining plays: %+v", recent)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", cfg.History.Path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := history.Open(cfg); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

type captureWriter struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (w *captureWriter) Record(_ context.Context, entry history.Entry) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, entry)
	return int64(len(w.entries)), nil
}

func TestRecorderFlushesOnShutdown(t *testing.T) {
	writer := &captureWriter{}
	rec := history.NewRecorder(writer, logging.NewNop())
	rec.Enqueue(history.Entry{AlbumID: "A", Track: "a1.mp3"})
	rec.Enqueue(history.Entry{AlbumID: "A", Track: "a2.mp3"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Run(ctx)

	writer.mu.Lock()
	defer writer.mu.Unlock()
	if len(writer.entries) != 2 {
		t.Fatalf("expected 2 plays written, got %d", len(writer.entries))
	}
	if writer.entries[0].PlayedAt.IsZero() {
		t.Fatal("expected enqueue to stamp the play time")
	}
}

// ctxWriter refuses writes on a cancelled context, as database/sql does.
type ctxWriter struct {
	captureWriter
}

func (w *ctxWriter) Record(ctx context.Context, entry history.Entry) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return w.captureWriter.Record(ctx, entry)
}

func TestRecorderKeepsPlaysDequeuedDuringShutdown(t *testing.T) {
	// With ctx already cancelled both select arms are ready, so each round
	// exercises whichever arm the runtime picks.
	const rounds = 64
	writer := &ctxWriter{}
	rec := history.NewRecorder(writer, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := range rounds {
		rec.Enqueue(history.Entry{AlbumID: "A", Track: fmt.Sprintf("t%02d.mp3", i)})
		rec.Run(ctx)
	}

	writer.mu.Lock()
	defer writer.mu.Unlock()
	if len(writer.entries) != rounds {
		t.Fatalf("expected %d plays written, got %d", rounds, len(writer.entries))
	}
}

func TestRecorderWritesToStore(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	rec := history.NewRecorder(store, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := range 8 {
		rec.Enqueue(history.Entry{AlbumID: "B", Track: "b1.mp3", Title: fmt.Sprintf("Song %d", i)})
		rec.Run(ctx)
	}

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 8 {
		t.Fatalf("expected 8 plays in store, got %d", count)
	}
	recent, err := store.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Title != "Song 7" {
		t.Fatalf("unexpected history: %+v", recent)
	}
}
