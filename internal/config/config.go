package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	DownloadDirectory string `toml:"download_directory"`
	DownloadLog       string `toml:"download_log"`
	HistoryDB         string `toml:"history_db"`
	LogDir            string `toml:"log_dir"`
}

// Download contains scheduler settings.
type Download struct {
	MaxConcurrency int  `toml:"max_concurrency"`
	DryRun         bool `toml:"dry_run"`
	// SyncEachCompletion flushes the download log after every successful
	// task instead of once at the end of the run.
	SyncEachCompletion bool `toml:"sync_each_completion"`
}

// FFmpeg contains configuration for the stream-copy process.
type FFmpeg struct {
	Binary         string `toml:"binary"`
	LogLevel       string `toml:"loglevel"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Metadata contains configuration for the RÚV metadata API.
type Metadata struct {
	BaseURL               string `toml:"base_url"`
	MaxAttempts           int    `toml:"max_attempts"`
	RetryBackoffSeconds   int    `toml:"retry_backoff_seconds"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	LookupConcurrency     int    `toml:"lookup_concurrency"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// History contains configuration for the run history database.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// RetentionDays prunes per-run log files in paths.log_dir older than this
	// many days. 0 keeps everything.
	RetentionDays int `toml:"retention_days"`
}

// Series describes one programme to follow.
type Series struct {
	ID string `toml:"id"`
	// Title overrides the title reported by the metadata API.
	Title string `toml:"title"`
	// Filename is the output path template, relative to the download directory.
	Filename string `toml:"filename"`
	// Overrides maps episode identifiers to a replacement template.
	Overrides map[string]string `toml:"overrides"`
}

// Config encapsulates all configuration values for jofsarpur.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Download      Download      `toml:"download"`
	FFmpeg        FFmpeg        `toml:"ffmpeg"`
	Metadata      Metadata      `toml:"metadata"`
	Notifications Notifications `toml:"notifications"`
	History       History       `toml:"history"`
	Logging       Logging       `toml:"logging"`
	Series        []Series      `toml:"series"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decode(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return err
	}
	if isLegacy(raw) {
		order, err := legacyTableOrder(data)
		if err != nil {
			return err
		}
		return applyLegacy(raw, order, cfg)
	}
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(cfg)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("jofsarpur.toml")
	if err != nil {
		return "", false, err
	}

	for _, candidate := range []string{defaultPath, systemConfigPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DownloadDirectory, filepath.Dir(c.Paths.DownloadLog)}
	if c.History.Enabled && c.Paths.HistoryDB != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.HistoryDB))
	}
	if c.Paths.LogDir != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name or path.
func (c *Config) FFmpegBinary() string {
	if binary := strings.TrimSpace(c.FFmpeg.Binary); binary != "" {
		return binary
	}
	return defaultFFmpegBinary
}

// SeriesByID returns the configured series with the given identifier.
func (c *Config) SeriesByID(id string) (Series, bool) {
	for _, s := range c.Series {
		if s.ID == id {
			return s, true
		}
	}
	return Series{}, false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
