package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"jofsarpur/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, 0)

	out, err := runCLI(t, env.configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Series followed: 1")
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err = runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}

	out, err = runCLI(t, target, "config", "validate")
	if err != nil {
		t.Fatalf("validate sample: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestLogList(t *testing.T) {
	env := setupCLITestEnv(t, 0)
	testsupport.WriteFile(t, env.cfg.Paths.DownloadLog, []byte(`{"100": ["a", "b"], "200": ["x"]}`))

	out, err := runCLI(t, env.configPath, "log", "list")
	if err != nil {
		t.Fatalf("log list: %v", err)
	}
	requireContains(t, out, "a, b")
	requireContains(t, out, "200")

	out, err = runCLI(t, env.configPath, "log", "list", "--series", "200", "--json")
	if err != nil {
		t.Fatalf("log list --json: %v", err)
	}
	var got []struct {
		SeriesID string   `json:"series_id"`
		Episodes []string `json:"episodes"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(got) != 1 || got[0].SeriesID != "200" || len(got[0].Episodes) != 1 || got[0].Episodes[0] != "x" {
		t.Fatalf("unexpected filtered log: %+v", got)
	}
}

func TestHistoryShowsRunDetails(t *testing.T) {
	env := setupCLITestEnv(t, 0, "e1")
	if _, err := runCLI(t, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, err := runCLI(t, env.configPath, "history", "--json")
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var runs []struct {
		ID              string  `json:"id"`
		Done            int     `json:"done"`
		DurationSeconds float64 `json:"duration_seconds"`
	}
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].Done != 1 {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	out, err = runCLI(t, env.configPath, "history", "--run", runs[0].ID[:8])
	if err != nil {
		t.Fatalf("history --run: %v", err)
	}
	requireContains(t, out, "Run "+runs[0].ID)
	requireContains(t, out, "done")

	out, err = runCLI(t, env.configPath, "history", "--series", "landinn")
	if err != nil {
		t.Fatalf("history --series: %v", err)
	}
	requireContains(t, out, "e1")
}

func TestCheckOffline(t *testing.T) {
	env := setupCLITestEnv(t, 0)
	out, err := runCLI(t, env.configPath, "check", "--offline")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "FFmpeg:")
	requireContains(t, out, "[OK]")
}

func TestCheckFindsFFmpegOnPath(t *testing.T) {
	env := newCLITestEnv(t, nil, testsupport.WithStubbedBinaries())
	if env.cfg.FFmpeg.Binary != "ffmpeg" {
		t.Fatalf("expected default binary name, got %q", env.cfg.FFmpeg.Binary)
	}
	out, err := runCLI(t, env.configPath, "check", "--offline")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, filepath.Join(testsupport.BaseDir(env.cfg), "bin", "ffmpeg"))
}

func TestNotifyTestWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t, 0)
	out, err := runCLI(t, env.configPath, "notify", "test")
	if err != nil {
		t.Fatalf("notify test: %v", err)
	}
	requireContains(t, out, "Notifications are disabled")
}
