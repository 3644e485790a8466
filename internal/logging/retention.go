package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	runLogPrefix     = "jofsarpur-"
	runLogSuffix     = ".log"
	runLogTimeLayout = "20060102-150405"
)

// RunLogName is the file name of the per-run log for a run started at t.
func RunLogName(t time.Time) string {
	return runLogPrefix + t.Format(runLogTimeLayout) + runLogSuffix
}

// runLogTime recovers the start time encoded in a per-run log name.
func runLogTime(name string) (time.Time, bool) {
	stamp, ok := strings.CutPrefix(name, runLogPrefix)
	if !ok {
		return time.Time{}, false
	}
	stamp, ok = strings.CutSuffix(stamp, runLogSuffix)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(runLogTimeLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// PruneRunLogs removes per-run logs in dir whose run started more than
// retentionDays ago. The age comes from the file name, so copying a log
// directory does not reset it. keep is never removed; other files are
// left alone. retentionDays <= 0 keeps everything.
func PruneRunLogs(logger *slog.Logger, dir string, retentionDays int, keep string) int {
	if retentionDays <= 0 || strings.TrimSpace(dir) == "" {
		return 0
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	keepName := filepath.Base(keep)

	pruned := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == keepName {
			continue
		}
		started, ok := runLogTime(name)
		if !ok || !started.Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "old run log not removed", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions on paths.log_dir"),
				String(FieldImpact, "old run log stays on disk"),
			)
			continue
		}
		pruned++
	}
	if pruned > 0 && logger != nil {
		logger.Debug("old run logs pruned",
			Int("count", pruned),
			Int("retention_days", retentionDays),
			String(FieldEventType, "log_pruned"),
		)
	}
	return pruned
}
