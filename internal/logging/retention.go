package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiagnosticDir is the log directory subfolder holding per-session
// diagnostic logs.
const DiagnosticDir = "debug"

const dailyDateLayout = "20060102"

// LogFileName returns the daily log file name for t.
func LogFileName(t time.Time) string {
	return "jukebox-" + t.Format(dailyDateLayout) + ".log"
}

// DiagnosticLogPath returns the diagnostic log for one daemon session.
func DiagnosticLogPath(logDir, sessionID string) string {
	return filepath.Join(logDir, DiagnosticDir, "jukebox-"+sessionID+".log")
}

// logDay parses the date out of a daily log file name.
func logDay(name string) (time.Time, bool) {
	stamp, ok := strings.CutPrefix(name, "jukebox-")
	if !ok {
		return time.Time{}, false
	}
	stamp, ok = strings.CutSuffix(stamp, ".log")
	if !ok {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation(dailyDateLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// PruneLogs deletes logs older than days. Daily logs age by the date in
// their name, so today's file is never removed; diagnostic session logs age
// by modification time. Anything else in logDir is left alone. days <= 0
// keeps everything. PruneLogs returns the number of files removed.
func PruneLogs(logger *slog.Logger, logDir string, days int, now time.Time) int {
	if days <= 0 || strings.TrimSpace(logDir) == "" {
		return 0
	}
	y, m, d := now.Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -days)

	removed := 0
	remove := func(path string) {
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			return
		}
		removed++
		if logger != nil {
			logger.Debug("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}

	if entries, err := os.ReadDir(logDir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if day, ok := logDay(entry.Name()); ok && day.Before(cutoff) {
				remove(filepath.Join(logDir, entry.Name()))
			}
		}
	}

	diagDir := filepath.Join(logDir, DiagnosticDir)
	if entries, err := os.ReadDir(diagDir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".log" {
				continue
			}
			info, err := entry.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}
			remove(filepath.Join(diagDir, entry.Name()))
		}
	}

	if removed > 0 && logger != nil {
		logger.Info("old logs pruned",
			String(FieldEventType, "logs_pruned"),
			Int("removed", removed),
			Int("retention_days", days))
	}
	return removed
}
