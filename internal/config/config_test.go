package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"jofsarpur/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jofsarpur.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("JOFSARPUR_NTFY_TOPIC", "https://ntfy.example/topic")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, "Videos", "ruv"); cfg.Paths.DownloadDirectory != want {
		t.Fatalf("unexpected download dir: got %q want %q", cfg.Paths.DownloadDirectory, want)
	}
	if want := filepath.Join(tempHome, ".jofsarpur-downloads.json"); cfg.Paths.DownloadLog != want {
		t.Fatalf("unexpected download log: got %q want %q", cfg.Paths.DownloadLog, want)
	}
	if cfg.Download.MaxConcurrency != 4 {
		t.Fatalf("expected default concurrency 4, got %d", cfg.Download.MaxConcurrency)
	}
	if cfg.Metadata.MaxAttempts != config.Default().Metadata.MaxAttempts {
		t.Fatalf("unexpected max attempts: %d", cfg.Metadata.MaxAttempts)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/topic" {
		t.Fatalf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
	if !errors.Is(cfg.RequireSeries(), config.ErrNoSeries) {
		t.Fatal("expected ErrNoSeries for a config without series")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DownloadDirectory, filepath.Dir(cfg.Paths.HistoryDB)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	type payload struct {
		Paths struct {
			DownloadDirectory string `toml:"download_directory"`
		} `toml:"paths"`
		Download struct {
			MaxConcurrency int `toml:"max_concurrency"`
		} `toml:"download"`
		Series []config.Series `toml:"series"`
	}
	custom := payload{}
	custom.Paths.DownloadDirectory = "~/tv"
	custom.Download.MaxConcurrency = 2
	custom.Series = []config.Series{{
		ID:        " 31685 ",
		Title:     "Krakkafréttir",
		Filename:  "{title}/{title} {episode_number:02d}.mp4",
		Overrides: map[string]string{"abc": "{title}/special.mp4"},
	}}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := writeConfig(t, string(data))

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %q to be used, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Paths.DownloadDirectory != filepath.Join(tempHome, "tv") {
		t.Fatalf("unexpected download dir: %q", cfg.Paths.DownloadDirectory)
	}
	if cfg.Download.MaxConcurrency != 2 {
		t.Fatalf("unexpected concurrency: %d", cfg.Download.MaxConcurrency)
	}
	series, ok := cfg.SeriesByID("31685")
	if !ok {
		t.Fatal("expected series 31685 after trimming")
	}
	if series.Overrides["abc"] != "{title}/special.mp4" {
		t.Fatalf("unexpected overrides: %v", series.Overrides)
	}
	if err := cfg.RequireSeries(); err != nil {
		t.Fatalf("RequireSeries: %v", err)
	}
}

func TestLoadLegacyLayout(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
[global]
download_directory = "/srv/ruv"

[35000]
filenames = "{title}/{title} {episode_number}.mp4"

[31685]
title = "Krakkafréttir"
filenames = "{title}/{airdate:%Y-%m-%d}.mp4"
exception-p1 = "{title}/special.mp4"
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DownloadDirectory != "/srv/ruv" {
		t.Fatalf("unexpected download dir: %q", cfg.Paths.DownloadDirectory)
	}
	if len(cfg.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(cfg.Series))
	}
	if cfg.Series[0].ID != "35000" || cfg.Series[1].ID != "31685" {
		t.Fatalf("expected series in file order, got %q, %q", cfg.Series[0].ID, cfg.Series[1].ID)
	}
	first := cfg.Series[1]
	if first.Title != "Krakkafréttir" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.Filename != "{title}/{airdate:%Y-%m-%d}.mp4" {
		t.Fatalf("unexpected filename: %q", first.Filename)
	}
	if first.Overrides["p1"] != "{title}/special.mp4" {
		t.Fatalf("unexpected overrides: %v", first.Overrides)
	}
}

func TestLoadLegacyLayoutKeepsFileOrder(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
[200]
filenames = "{title}/{pid}.mp4"

[global]
download_directory = "/srv/ruv"

[100]
filenames = "{title}/{pid}.mp4"

["150"]
filenames = "{title}/{pid}.mp4"
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	var got []string
	for _, s := range cfg.Series {
		got = append(got, s.ID)
	}
	if strings.Join(got, ",") != "200,100,150" {
		t.Fatalf("expected file order 200,100,150, got %v", got)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[download]\nmax_threads = 3\n")
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"concurrency", func(c *config.Config) { c.Download.MaxConcurrency = 0 }, "max_concurrency"},
		{"attempts", func(c *config.Config) { c.Metadata.MaxAttempts = -1 }, "max_attempts"},
		{"format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"ffmpeg loglevel", func(c *config.Config) { c.FFmpeg.LogLevel = "loud" }, "ffmpeg.loglevel"},
		{"series id", func(c *config.Config) {
			c.Series = []config.Series{{ID: "abc", Filename: "x.mp4"}}
		}, "numeric"},
		{"series filename", func(c *config.Config) {
			c.Series = []config.Series{{ID: "1"}}
		}, "filename"},
		{"template syntax", func(c *config.Config) {
			c.Series = []config.Series{{ID: "1", Filename: "{title"}}
		}, "invalid template"},
		{"template width", func(c *config.Config) {
			c.Series = []config.Series{{ID: "1", Filename: "{title:>99999999999999999999}.mp4"}}
		}, "exceeds"},
		{"override spec", func(c *config.Config) {
			c.Series = []config.Series{{ID: "1", Filename: "a.mp4", Overrides: map[string]string{"p1": "{title:q?}"}}}
		}, "override p1"},
		{"duplicate series", func(c *config.Config) {
			c.Series = []config.Series{{ID: "1", Filename: "a"}, {ID: "1", Filename: "b"}}
		}, "more than once"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if len(cfg.Series) != 1 || cfg.Series[0].ID != "31685" {
		t.Fatalf("unexpected sample series: %+v", cfg.Series)
	}
}
