package downloadlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"

	"jofsarpur/internal/logging"
)

// ErrLocked is returned by Open when another process holds the log.
var ErrLocked = errors.New("download log is in use by another process")

// Log is the set of completed (series, episode) pairs.
type Log struct {
	path     string
	logger   *slog.Logger
	lock     *flock.Flock
	syncEach bool

	mu      sync.Mutex
	entries map[string][]string
	index   map[string]map[string]struct{}
	dirty   bool
}

// Option configures a Log.
type Option func(*Log)

// WithLogger sets the logger used for flush diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithSyncEachCompletion writes the file after every new entry instead of
// only on Flush.
func WithSyncEachCompletion(enabled bool) Option {
	return func(l *Log) { l.syncEach = enabled }
}

// New returns an empty log. With an empty path it lives only in memory and
// Flush does nothing.
func New(path string, opts ...Option) *Log {
	l := &Log{
		path:    path,
		logger:  logging.NewNop(),
		entries: make(map[string][]string),
		index:   make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.NewComponentLogger(l.logger, "downloadlog")
	return l
}

// Load reads the log at path. A missing file yields an empty log; a file that
// is not a JSON object of string lists is an error.
func Load(path string, opts ...Option) (*Log, error) {
	l := New(path, opts...)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return l, nil
		}
		return nil, fmt.Errorf("read download log: %w", err)
	}
	if len(data) == 0 {
		return l, nil
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse download log %s: %w", path, err)
	}
	for seriesID, episodes := range raw {
		for _, episodeID := range episodes {
			l.insert(seriesID, episodeID)
		}
	}
	l.dirty = false
	return l, nil
}

// Open takes an exclusive lock on path (through a sibling ".lock" file) and
// loads the log. Close releases the lock.
func Open(path string, opts ...Option) (*Log, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create download log directory: %w", err)
		}
	}
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock download log: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	l, err := Load(path, opts...)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	l.lock = lock
	return l, nil
}

// Path returns the file backing the log.
func (l *Log) Path() string {
	return l.path
}

// Contains reports whether the episode has been recorded for the series.
func (l *Log) Contains(seriesID, episodeID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.index[seriesID][episodeID]
	return ok
}

// Add records a completed episode and reports whether it was new.
func (l *Log) Add(seriesID, episodeID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.insert(seriesID, episodeID) {
		return false
	}
	if l.syncEach {
		if err := l.flushLocked(); err != nil {
			logging.WarnWithContext(l.logger, "download log write failed", "download_log_sync_failed",
				logging.String("path", l.path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the download log directory"),
				logging.String(logging.FieldImpact, "entry is kept in memory and written at the end of the run"),
			)
		}
	}
	return true
}

func (l *Log) insert(seriesID, episodeID string) bool {
	episodes, ok := l.index[seriesID]
	if !ok {
		episodes = make(map[string]struct{})
		l.index[seriesID] = episodes
	}
	if _, exists := episodes[episodeID]; exists {
		return false
	}
	episodes[episodeID] = struct{}{}
	l.entries[seriesID] = append(l.entries[seriesID], episodeID)
	l.dirty = true
	return true
}

// Len returns the number of recorded episodes.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, episodes := range l.entries {
		total += len(episodes)
	}
	return total
}

// Snapshot returns a copy of the log contents.
func (l *Log) Snapshot() map[string][]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string][]string, len(l.entries))
	for seriesID, episodes := range l.entries {
		out[seriesID] = append([]string(nil), episodes...)
	}
	return out
}

// SeriesIDs returns the recorded series identifiers in sorted order.
func (l *Log) SeriesIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Flush writes the log if it changed since it was loaded or last written.
func (l *Log) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushLocked()
}

func (l *Log) flushLocked() error {
	if !l.dirty || l.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal download log: %w", err)
	}
	if err := writeAtomic(l.path, append(data, '\n')); err != nil {
		return err
	}
	l.dirty = false
	l.logger.Debug("download log written",
		logging.String("path", l.path),
		logging.Int("series", len(l.entries)),
	)
	return nil
}

// Close releases the lock taken by Open. It does not flush.
func (l *Log) Close() error {
	if l.lock == nil {
		return nil
	}
	err := l.lock.Unlock()
	l.lock = nil
	return err
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create download log directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace download log: %w", err)
	}
	return nil
}
