package history

import (
	"time"

	"github.com/google/uuid"

	"jofsarpur/internal/queue"
	"jofsarpur/internal/scheduler"
	"jofsarpur/internal/services"
)

// Run summarises one invocation of the downloader.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	Total      int
	Done       int
	Failed     int
	Recorded   int
	// Error is the run-level error, if the run itself failed.
	Error string
}

// Duration is the wall-clock length of the run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome is the final state of one task in a run.
type Outcome struct {
	RunID       string
	Position    int
	SeriesID    string
	EpisodeID   string
	Title       string
	State       queue.State
	OutputPath  string
	Error       string
	FailureKind string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// NewRun builds a Run record from a scheduler summary.
func NewRun(id string, startedAt time.Time, dryRun bool, summary *scheduler.Summary, runErr error) Run {
	run := Run{
		ID:         id,
		StartedAt:  startedAt,
		FinishedAt: startedAt,
		DryRun:     dryRun,
	}
	if summary != nil {
		run.FinishedAt = startedAt.Add(summary.Duration)
		run.Total = summary.Tasks
		run.Done = summary.Done
		run.Failed = summary.Failed
		run.Recorded = summary.Recorded
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	return run
}

// OutcomesFromTasks captures the terminal state of tasks in build order.
func OutcomesFromTasks(runID string, tasks []*queue.Task) []Outcome {
	outcomes := make([]Outcome, 0, len(tasks))
	for i, task := range tasks {
		outcome := Outcome{
			RunID:      runID,
			Position:   i,
			SeriesID:   task.SeriesID,
			EpisodeID:  task.EpisodeID,
			Title:      task.Title,
			State:      task.State,
			OutputPath: task.OutputPath,
		}
		if task.Err != nil {
			outcome.Error = task.Err.Error()
			outcome.FailureKind = services.FailureKind(task.Err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}
