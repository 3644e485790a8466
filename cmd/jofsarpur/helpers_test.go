package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"jofsarpur/internal/config"
	"jofsarpur/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

// fakeRUV serves a programme listing for series 100 and a stream for each
// of its episodes.
func fakeRUV(t *testing.T, episodes ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch q.Get("operationName") {
		case "getEpisode":
			type episode struct {
				ID       string `json:"id"`
				Title    string `json:"title"`
				FirstRun string `json:"firstrun"`
			}
			list := make([]episode, 0, len(episodes))
			for i, id := range episodes {
				list = append(list, episode{ID: id, Title: "Þáttur " + string(rune('1'+i)) + " af 9", FirstRun: "2024-02-01 20:00:00"})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"Program": map[string]any{"title": "Landinn", "episodes": list}},
			})
		case "getProgramType":
			var vars struct {
				EpisodeID []string `json:"episodeId"`
			}
			if err := json.Unmarshal([]byte(q.Get("variables")), &vars); err != nil || len(vars.EpisodeID) != 1 {
				http.Error(w, "bad variables", http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"Program": map[string]any{"episodes": []map[string]string{
					{"file": "https://cdn.example/" + vars.EpisodeID[0] + ".m3u8"},
				}}},
			})
		default:
			http.Error(w, "unknown operation", http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setupCLITestEnv(t *testing.T, ffmpegExit int, episodes ...string) *cliTestEnv {
	t.Helper()
	return newCLITestEnv(t, episodes, testsupport.WithStubbedFFmpeg(ffmpegExit))
}

func newCLITestEnv(t *testing.T, episodes []string, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("JOFSARPUR_NTFY_TOPIC", "")

	srv := fakeRUV(t, episodes...)
	opts = append(opts, testsupport.WithMetadataURL(srv.URL+"/gql/"))
	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	testsupport.WriteFile(t, path, data)
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file %s: %v", path, err)
	}
	return data
}
