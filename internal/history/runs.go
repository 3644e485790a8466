package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"jofsarpur/internal/queue"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, started_at, finished_at, dry_run, total, done, failed, recorded, error"

const outcomeColumns = "run_id, position, series_id, episode_id, title, state, output_path, error, failure_kind"

// RecordRun stores a run and its task outcomes in one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run, outcomes []Outcome) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin run tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO runs ("+runColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			run.ID,
			run.StartedAt.UTC().Format(timeLayout),
			run.FinishedAt.UTC().Format(timeLayout),
			boolToInt(run.DryRun),
			run.Total,
			run.Done,
			run.Failed,
			run.Recorded,
			run.Error,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, "INSERT INTO task_outcomes ("+outcomeColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("prepare outcome insert: %w", err)
		}
		defer stmt.Close()
		for _, o := range outcomes {
			if _, err := stmt.ExecContext(ctx,
				run.ID, o.Position, o.SeriesID, o.EpisodeID, o.Title,
				string(o.State), o.OutputPath, o.Error, o.FailureKind,
			); err != nil {
				return fmt.Errorf("insert outcome %s:%s: %w", o.SeriesID, o.EpisodeID, err)
			}
		}
		return tx.Commit()
	})
}

// RecentRuns returns up to limit runs, newest first. A limit below one
// returns every run.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FindRun resolves a run by its full id or an unambiguous prefix.
func (s *Store) FindRun(ctx context.Context, idOrPrefix string) (Run, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return Run{}, ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\\' ORDER BY started_at DESC LIMIT 2",
		idOrPrefix, escapeLike(idOrPrefix)+"%",
	)
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		if run.ID == idOrPrefix {
			return run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(matches) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, idOrPrefix)
	case 1:
		return matches[0], nil
	default:
		return Run{}, fmt.Errorf("run id prefix %q is ambiguous", idOrPrefix)
	}
}

// Outcomes returns the task outcomes of a run in build order.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	return s.queryOutcomes(ctx,
		"SELECT "+outcomeColumns+" FROM task_outcomes WHERE run_id = ? ORDER BY position",
		runID,
	)
}

// RecentOutcomes returns the most recent task outcomes across runs, newest
// run first. An empty seriesID includes every series; a limit below one
// returns everything.
func (s *Store) RecentOutcomes(ctx context.Context, seriesID string, limit int) ([]Outcome, error) {
	if limit < 1 {
		limit = -1
	}
	return s.queryOutcomes(ctx,
		"SELECT o.run_id, o.position, o.series_id, o.episode_id, o.title, o.state, o.output_path, o.error, o.failure_kind "+
			"FROM task_outcomes o JOIN runs r ON r.id = o.run_id "+
			"WHERE (? = '' OR o.series_id = ?) ORDER BY r.started_at DESC, o.position LIMIT ?",
		seriesID, seriesID, limit,
	)
}

func (s *Store) queryOutcomes(ctx context.Context, query string, args ...any) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var (
			o     Outcome
			state string
		)
		if err := rows.Scan(&o.RunID, &o.Position, &o.SeriesID, &o.EpisodeID, &o.Title,
			&state, &o.OutputPath, &o.Error, &o.FailureKind); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.State = queue.State(state)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run               Run
		started, finished string
		dryRun            int
	)
	if err := rows.Scan(&run.ID, &started, &finished, &dryRun,
		&run.Total, &run.Done, &run.Failed, &run.Recorded, &run.Error); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	var err error
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return Run{}, fmt.Errorf("parse started_at for run %s: %w", run.ID, err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return Run{}, fmt.Errorf("parse finished_at for run %s: %w", run.ID, err)
	}
	run.DryRun = dryRun != 0
	return run, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
