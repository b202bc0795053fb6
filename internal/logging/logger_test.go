package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jukebox/internal/config"
	"jukebox/internal/logging"
)

func TestNewFromConfigWritesDailyFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	hub := logging.NewStreamHub(16)
	logger, err := logging.NewFromConfig(&cfg, "session-1", hub, true)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("daemon started", logging.String(logging.FieldEventType, "daemon_started"))

	path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName(time.Now()))
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("log file is not JSON: %v (%q)", err, content)
	}
	if record["msg"] != "daemon started" || record["session_id"] != "session-1" {
		t.Fatalf("unexpected record: %v", record)
	}

	events, _ := hub.Tail(10)
	if len(events) != 1 || events[0].Event != "daemon_started" || events[0].Session != "session-1" {
		t.Fatalf("expected event in hub, got %+v", events)
	}
}

func TestConsoleLoggerFormatsHeaderAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	component := logging.NewComponentLogger(logger, "playback")
	component.Info("title loaded", logging.Album("rock"), logging.Track("01.mp3"), logging.String("title", "Intro"))
	component.Info("title loaded", logging.Album("rock"), logging.Track("02.mp3"), logging.String("title", "Intro"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "INFO [playback] rock / 01.mp3 - title loaded") {
		t.Fatalf("missing header in %q", text)
	}
	if strings.Count(text, "- Title: Intro") != 1 {
		t.Fatalf("unchanged field should print once, got %q", text)
	}
	if strings.Contains(text, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", text)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("message with caller", logging.Int("frame", 3))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") || !strings.Contains(string(content), "frame: 3") {
		t.Fatalf("expected caller and raw fields in debug logs, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	logger, err := logging.New(logging.Options{Format: "json", Level: "invalid", OutputPaths: []string{"discard"}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be disabled")
	}
	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be enabled")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "clip missing", "clip_missing", logging.String(logging.FieldImpact, "number not spoken"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "clip_missing" {
		t.Fatalf("missing event type: %v", record)
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatalf("missing default hint: %v", record)
	}
	if record[logging.FieldImpact] != "number not spoken" {
		t.Fatalf("impact overridden: %v", record)
	}
}

func TestWithContextAddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := logging.ContextWithCorrelationID(context.Background(), "req-xyz")

	logging.WithContext(ctx, logger).Info("contextual log")

	if !strings.Contains(buf.String(), `"correlation_id":"req-xyz"`) {
		t.Fatalf("expected correlation id, got %s", buf.String())
	}
	if got := logging.WithContext(context.Background(), logger); got != logger {
		t.Fatal("logger without context fields should be returned unchanged")
	}
}

func TestPruneLogsAgesDailyFilesByName(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 20, 9, 30, 0, 0, time.Local)
	old := filepath.Join(dir, logging.LogFileName(now.AddDate(0, 0, -8)))
	edge := filepath.Join(dir, logging.LogFileName(now.AddDate(0, 0, -7)))
	today := filepath.Join(dir, logging.LogFileName(now))
	other := filepath.Join(dir, "notes.txt")
	staleDiag := logging.DiagnosticLogPath(dir, "old-session")
	freshDiag := logging.DiagnosticLogPath(dir, "new-session")
	if err := os.MkdirAll(filepath.Dir(staleDiag), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	stale := now.AddDate(0, 0, -30)
	for _, path := range []string{old, edge, today, other, staleDiag, freshDiag} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		// Daily files are judged by name; a stale mtime must not matter.
		if path != freshDiag {
			if err := os.Chtimes(path, stale, stale); err != nil {
				t.Fatalf("chtimes: %v", err)
			}
		}
	}
	if err := os.Chtimes(freshDiag, now, now); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if removed := logging.PruneLogs(logging.NewNop(), dir, 7, now); removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	for _, path := range []string{old, staleDiag} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", path, err)
		}
	}
	for _, path := range []string{edge, today, other, freshDiag} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
}

func TestPruneLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, logging.LogFileName(time.Now().AddDate(-1, 0, 0)))
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if removed := logging.PruneLogs(logging.NewNop(), dir, 0, time.Now()); removed != 0 {
		t.Fatalf("removed = %d with retention disabled", removed)
	}
}
