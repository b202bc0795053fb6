package history

import (
	"context"
	"log/slog"
	"time"

	"jukebox/internal/logging"
)

const recorderBuffer = 64

// Writer is the part of Store used by Recorder.
type Writer interface {
	Record(ctx context.Context, entry Entry) (int64, error)
}

// Recorder queues plays and writes them from its own goroutine. Enqueue never
// blocks; plays arriving while the buffer is full are dropped and logged.
type Recorder struct {
	writer  Writer
	logger  *slog.Logger
	entries chan Entry
}

// NewRecorder returns a recorder writing to w. Call Run to start writing.
func NewRecorder(w Writer, logger *slog.Logger) *Recorder {
	return &Recorder{
		writer:  w,
		logger:  logging.NewComponentLogger(logger, "history"),
		entries: make(chan Entry, recorderBuffer),
	}
}

// Enqueue schedules entry for writing.
func (r *Recorder) Enqueue(entry Entry) {
	if entry.PlayedAt.IsZero() {
		entry.PlayedAt = time.Now()
	}
	select {
	case r.entries <- entry:
	default:
		logging.WarnWithContext(r.logger, "play history buffer full", "history_dropped",
			logging.String("track", entry.Track),
			logging.String(logging.FieldErrorHint, "history database may be slow or stuck"),
			logging.String(logging.FieldImpact, "play is missing from history"),
		)
	}
}

// Run writes queued plays until ctx is cancelled, then flushes what is left.
// Writes never inherit ctx's cancellation: a play dequeued as shutdown begins
// is still recorded.
func (r *Recorder) Run(ctx context.Context) {
	writeCtx := context.WithoutCancel(ctx)
	for {
		select {
		case entry := <-r.entries:
			r.write(writeCtx, entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-r.entries:
					r.write(writeCtx, entry)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(ctx context.Context, entry Entry) {
	if _, err := r.writer.Record(ctx, entry); err != nil {
		logging.WarnWithContext(r.logger, "failed to record play", "history_write_failed",
			logging.String("album", entry.AlbumID),
			logging.String("track", entry.Track),
			logging.Error(err),
		)
		return
	}
	r.logger.Debug("play recorded", logging.String("album", entry.AlbumID), logging.String("track", entry.Track))
}
