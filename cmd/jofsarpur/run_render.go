package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"jofsarpur/internal/queue"
	"jofsarpur/internal/scheduler"
	"jofsarpur/internal/services"
)

// renderProgress turns a scheduler event into a status line. Dry-run
// completions are reported by the summary table only.
func renderProgress(e scheduler.Event, dryRun bool, colorize bool) (string, bool) {
	if e.Task == nil || dryRun {
		return "", false
	}
	label := e.Task.Label()
	switch e.Kind {
	case scheduler.EventStarted:
		return renderStatusLine(label, statusInfo, fmt.Sprintf("downloading (%d running)", e.Running), colorize), true
	case scheduler.EventDone:
		return renderStatusLine(label, statusOK, "done in "+e.Elapsed.Round(time.Second).String(), colorize), true
	case scheduler.EventFailed:
		return renderStatusLine(label, statusError, services.FailureKind(e.Task.Err), colorize), true
	default:
		return "", false
	}
}

func renderRunSummary(out io.Writer, result queue.BuildResult, summary *scheduler.Summary, dryRun bool) {
	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "%d episodes already downloaded\n", len(result.Skipped))
	}
	if summary == nil || summary.Tasks == 0 {
		fmt.Fprintln(out, "Nothing new to download")
		return
	}

	headers := []string{"#", "Series", "Episode", "Title", "State", "Detail"}
	rows := make([][]string, 0, len(result.Tasks))
	for _, task := range result.Tasks {
		rows = append(rows, []string{
			strconv.Itoa(task.Index + 1),
			task.SeriesID,
			task.EpisodeID,
			task.Title,
			taskStateLabel(task, dryRun),
			taskDetail(task),
		})
	}
	fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignRight}))

	if dryRun {
		fmt.Fprintf(out, "Dry run: %d would be downloaded, %d failed\n", summary.Done, summary.Failed)
		return
	}
	fmt.Fprintf(out, "Downloaded %d, failed %d in %s\n", summary.Done, summary.Failed, summary.Duration.Round(time.Second))
}

func taskStateLabel(task *queue.Task, dryRun bool) string {
	if dryRun && task.State == queue.StateDone {
		return "would download"
	}
	return string(task.State)
}

func taskDetail(task *queue.Task) string {
	if task.State == queue.StateError && task.Err != nil {
		return services.FailureKind(task.Err) + ": " + task.Err.Error()
	}
	return task.OutputPath
}
