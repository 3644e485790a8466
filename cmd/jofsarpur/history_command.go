package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jofsarpur/internal/history"
	"jofsarpur/internal/textutil"
)

const historyTimeLayout = "2006-01-02 15:04"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string
	var seriesFilter string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous runs and their outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "Run history is disabled (history.enabled = false)")
				return nil
			}
			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			switch {
			case strings.TrimSpace(runID) != "":
				return showRun(cmd, store, runID, asJSON)
			case strings.TrimSpace(seriesFilter) != "":
				return showSeriesHistory(cmd, store, seriesFilter, limit, asJSON)
			default:
				return showRuns(cmd, store, limit, asJSON)
			}
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of rows (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show the episodes of one run (id or unique prefix)")
	cmd.Flags().StringVarP(&seriesFilter, "series", "s", "", "Show outcomes for a series id or titles containing this text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func showRuns(cmd *cobra.Command, store *history.Store, limit int, asJSON bool) error {
	runs, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd, runsJSON(runs))
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet")
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.StartedAt.Local().Format(historyTimeLayout),
			run.Duration().Round(time.Second).String(),
			strconv.Itoa(run.Done),
			strconv.Itoa(run.Failed),
			yesNo(run.DryRun),
			run.Error,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Run", "Started", "Duration", "Done", "Failed", "Dry run", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
	return nil
}

func showRun(cmd *cobra.Command, store *history.Store, id string, asJSON bool) error {
	run, err := store.FindRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	outcomes, err := store.Outcomes(cmd.Context(), run.ID)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd, runDetailJSON{Run: runsJSON([]history.Run{run})[0], Outcomes: outcomesJSON(outcomes)})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s started %s (%s)\n", run.ID, run.StartedAt.Local().Format(historyTimeLayout), run.Duration().Round(time.Second))
	renderOutcomes(cmd, outcomes, false)
	return nil
}

func showSeriesHistory(cmd *cobra.Command, store *history.Store, filter string, limit int, asJSON bool) error {
	filter = strings.TrimSpace(filter)
	var (
		outcomes []history.Outcome
		err      error
	)
	if isNumeric(filter) {
		outcomes, err = store.RecentOutcomes(cmd.Context(), filter, limit)
	} else {
		// Titles are matched with Unicode case folding, which SQLite's LIKE lacks.
		var all []history.Outcome
		all, err = store.RecentOutcomes(cmd.Context(), "", 0)
		for _, o := range all {
			if textutil.ContainsFold(o.Title, filter) {
				outcomes = append(outcomes, o)
				if limit > 0 && len(outcomes) == limit {
					break
				}
			}
		}
	}
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd, outcomesJSON(outcomes))
	}
	if len(outcomes) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No recorded outcomes match %q\n", filter)
		return nil
	}
	renderOutcomes(cmd, outcomes, true)
	return nil
}

func renderOutcomes(cmd *cobra.Command, outcomes []history.Outcome, withRun bool) {
	headers := []string{"Series", "Episode", "Title", "State", "Detail"}
	if withRun {
		headers = append([]string{"Run"}, headers...)
	}
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		detail := o.OutputPath
		if o.Error != "" {
			detail = o.FailureKind + ": " + o.Error
		}
		row := []string{o.SeriesID, o.EpisodeID, o.Title, string(o.State), detail}
		if withRun {
			row = append([]string{shortID(o.RunID)}, row...)
		}
		rows = append(rows, row)
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, nil))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
