package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// timestampLayout keeps a fixed fraction width so stored values sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one play of a track.
type Entry struct {
	ID       int64
	AlbumID  string
	Track    string
	Title    string
	PlayedAt time.Time
}

// TrackStat aggregates plays of one track.
type TrackStat struct {
	AlbumID    string
	Track      string
	Title      string
	Plays      int
	LastPlayed time.Time
}

// Record inserts a play. A zero PlayedAt is stamped with the current time.
func (s *Store) Record(ctx context.Context, entry Entry) (int64, error) {
	if strings.TrimSpace(entry.Track) == "" {
		return 0, errors.New("record play: track is required")
	}
	playedAt := entry.PlayedAt
	if playedAt.IsZero() {
		playedAt = time.Now()
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO plays (album_id, track, title, played_at) VALUES (?, ?, ?, ?)`,
		entry.AlbumID,
		entry.Track,
		entry.Title,
		playedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert play: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Recent returns up to limit plays, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, album_id, track, title, played_at FROM plays ORDER BY played_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent plays: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry    Entry
			playedAt string
		)
		if err := rows.Scan(&entry.ID, &entry.AlbumID, &entry.Track, &entry.Title, &playedAt); err != nil {
			return nil, err
		}
		entry.PlayedAt = parseTimestamp(playedAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// TopTracks returns up to limit tracks ordered by play count.
func (s *Store) TopTracks(ctx context.Context, limit int) ([]TrackStat, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT album_id, track, MAX(title), COUNT(1) AS plays, MAX(played_at)
           FROM plays
          GROUP BY album_id, track
          ORDER BY plays DESC, MAX(played_at) DESC
          LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query top tracks: %w", err)
	}
	defer rows.Close()

	var stats []TrackStat
	for rows.Next() {
		var (
			stat       TrackStat
			lastPlayed string
		)
		if err := rows.Scan(&stat.AlbumID, &stat.Track, &stat.Title, &stat.Plays, &lastPlayed); err != nil {
			return nil, err
		}
		stat.LastPlayed = parseTimestamp(lastPlayed)
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// Count returns the number of recorded plays.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM plays`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count plays: %w", err)
	}
	return count, nil
}

// Prune deletes plays recorded before cutoff and reports how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM plays WHERE played_at < ?`,
		cutoff.UTC().Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune plays: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
