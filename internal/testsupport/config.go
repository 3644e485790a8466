package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"jofsarpur/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp paths per test and a
// single followed series.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DownloadDirectory = filepath.Join(base, "downloads")
	cfgVal.Paths.DownloadLog = filepath.Join(base, "state", "downloads.json")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "state", "history.db")
	cfgVal.Paths.LogDir = ""
	cfgVal.Notifications.NtfyTopic = ""
	cfgVal.Metadata.RetryBackoffSeconds = 0
	cfgVal.Metadata.MaxAttempts = 1
	cfgVal.Series = []config.Series{{ID: "100", Filename: "{title}/{title} {pid}.mp4"}}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithSeries replaces the followed series.
func WithSeries(series ...config.Series) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Series = series
	}
}

// WithMetadataURL points the metadata client at a test server.
func WithMetadataURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metadata.BaseURL = url
	}
}

// WithStubbedFFmpeg installs a fake ffmpeg that writes its last argument and
// exits with the given status, and points the config at it.
func WithStubbedFFmpeg(exitCode int) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		b.cfg.FFmpeg.Binary = WriteFakeFFmpeg(b.t, binDir, exitCode)
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DownloadDirectory)
}
