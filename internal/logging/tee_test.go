package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestTeeCollapses(t *testing.T) {
	if _, ok := tee(nil, nil).(noopHandler); !ok {
		t.Error("expected noopHandler for all nil handlers")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := tee(nil, inner, nil); h != inner {
		t.Error("expected single non-nil handler to be returned unwrapped")
	}
}

func TestTeeRoutesByLevel(t *testing.T) {
	var console, file bytes.Buffer
	h := tee(
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected tee to be enabled when any member accepts the level")
	}

	logger := slog.New(h).With(Album("A"))
	logger.Debug("tick")
	logger.Warn("engine stopped")

	if strings.Contains(console.String(), "tick") || !strings.Contains(console.String(), "engine stopped") {
		t.Fatalf("console got %q", console.String())
	}
	if strings.Count(file.String(), `"album":"A"`) != 2 {
		t.Fatalf("file should carry both records with attrs, got %q", file.String())
	}
}

func TestTeeLoggerKeepsSessionAndGroups(t *testing.T) {
	var console, diag bytes.Buffer
	base := slog.New(slog.NewTextHandler(&console, nil)).With(String(FieldSessionID, "s-1"))
	logger := TeeLogger(base, slog.NewTextHandler(&diag, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.WithGroup("engine").Info("started", Int("pid", 7))
	logger.Debug("status tick")

	if !strings.Contains(console.String(), "session_id=s-1") || !strings.Contains(console.String(), "engine.pid=7") {
		t.Fatalf("console output missing attrs: %q", console.String())
	}
	if strings.Contains(console.String(), "status tick") {
		t.Fatalf("console should drop debug records: %q", console.String())
	}
	if !strings.Contains(diag.String(), "engine.pid=7") || !strings.Contains(diag.String(), "status tick") {
		t.Fatalf("diagnostic output incomplete: %q", diag.String())
	}
}
