package main

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"jofsarpur/internal/queue"
	"jofsarpur/internal/scheduler"
	"jofsarpur/internal/services"
)

func TestRenderStatusLine(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusOK, "/usr/bin/ffmpeg", false)
	if !strings.HasPrefix(got, "  FFmpeg:") || !strings.HasSuffix(got, "[OK] /usr/bin/ffmpeg") {
		t.Fatalf("unexpected line %q", got)
	}
	colored := renderStatusLine("FFmpeg", statusError, "", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red line, got %q", colored)
	}
}

func TestRenderProgress(t *testing.T) {
	task := &queue.Task{SeriesID: "100", EpisodeID: "e1", Title: "Landinn"}
	line, ok := renderProgress(scheduler.Event{Kind: scheduler.EventStarted, Task: task, Running: 2}, false, false)
	if !ok || !strings.Contains(line, "downloading (2 running)") {
		t.Fatalf("unexpected start line %q", line)
	}

	task.Err = services.Wrap(services.ErrExternalTool, "ffmpeg", "wait", "exit 1", errors.New("boom"))
	line, ok = renderProgress(scheduler.Event{Kind: scheduler.EventFailed, Task: task}, false, false)
	if !ok || !strings.Contains(line, "[ERROR] process") {
		t.Fatalf("unexpected failure line %q", line)
	}

	if _, ok := renderProgress(scheduler.Event{Kind: scheduler.EventDone, Task: task}, true, false); ok {
		t.Fatal("dry run events should not render")
	}
}

func TestRenderRunSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	result := queue.BuildResult{Skipped: []queue.Key{{SeriesID: "100", EpisodeID: "a"}, {SeriesID: "100", EpisodeID: "b"}}}
	renderRunSummary(&buf, result, &scheduler.Summary{}, false)
	out := buf.String()
	requireContains(t, out, "2 episodes already downloaded")
	requireContains(t, out, "Nothing new to download")
}

func TestRenderRunSummaryTotals(t *testing.T) {
	var buf bytes.Buffer
	result := queue.BuildResult{Tasks: []*queue.Task{
		{Index: 0, SeriesID: "100", EpisodeID: "e1", Title: "Landinn", State: queue.StateDone, OutputPath: "/tv/a.mp4"},
	}}
	renderRunSummary(&buf, result, &scheduler.Summary{Tasks: 1, Done: 1, Duration: 3 * time.Second}, false)
	out := buf.String()
	requireContains(t, out, "/tv/a.mp4")
	requireContains(t, out, "Downloaded 1, failed 0 in 3s")
}

func TestShouldColorizeHonoursNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if shouldColorize(os.Stdout) {
		t.Fatal("NO_COLOR should disable colour")
	}
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never coloured")
	}
}
