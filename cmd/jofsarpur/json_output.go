package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"jofsarpur/internal/history"
)

// The --json output of history and log list. Field names are part of the
// command-line contract, so they are spelled out rather than derived from
// the storage structs.

type runJSON struct {
	ID              string    `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	DryRun          bool      `json:"dry_run"`
	Total           int       `json:"total"`
	Done            int       `json:"done"`
	Failed          int       `json:"failed"`
	Recorded        int       `json:"recorded"`
	Error           string    `json:"error,omitempty"`
}

type outcomeJSON struct {
	RunID       string `json:"run_id"`
	Position    int    `json:"position"`
	SeriesID    string `json:"series_id"`
	EpisodeID   string `json:"episode_id"`
	Title       string `json:"title"`
	State       string `json:"state"`
	OutputPath  string `json:"output_path,omitempty"`
	Error       string `json:"error,omitempty"`
	FailureKind string `json:"failure_kind,omitempty"`
}

type runDetailJSON struct {
	Run      runJSON       `json:"run"`
	Outcomes []outcomeJSON `json:"outcomes"`
}

type seriesLogJSON struct {
	SeriesID string   `json:"series_id"`
	Title    string   `json:"title,omitempty"`
	Episodes []string `json:"episodes"`
}

func runsJSON(runs []history.Run) []runJSON {
	out := make([]runJSON, 0, len(runs))
	for _, run := range runs {
		out = append(out, runJSON{
			ID:              run.ID,
			StartedAt:       run.StartedAt,
			FinishedAt:      run.FinishedAt,
			DurationSeconds: run.Duration().Seconds(),
			DryRun:          run.DryRun,
			Total:           run.Total,
			Done:            run.Done,
			Failed:          run.Failed,
			Recorded:        run.Recorded,
			Error:           run.Error,
		})
	}
	return out
}

func outcomesJSON(outcomes []history.Outcome) []outcomeJSON {
	out := make([]outcomeJSON, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, outcomeJSON{
			RunID:       o.RunID,
			Position:    o.Position,
			SeriesID:    o.SeriesID,
			EpisodeID:   o.EpisodeID,
			Title:       o.Title,
			State:       string(o.State),
			OutputPath:  o.OutputPath,
			Error:       o.Error,
			FailureKind: o.FailureKind,
		})
	}
	return out
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
