package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"jofsarpur/internal/config"
	"jofsarpur/internal/downloadlog"
	"jofsarpur/internal/textutil"
)

func newLogCommand(ctx *commandContext) *cobra.Command {
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Inspect the download log",
	}
	logCmd.AddCommand(newLogListCommand(ctx))
	return logCmd
}

func newLogListCommand(ctx *commandContext) *cobra.Command {
	var seriesFilter string
	var logPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List downloaded episodes per series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.Paths.DownloadLog
			if strings.TrimSpace(logPath) != "" {
				if path, err = config.ExpandPath(logPath); err != nil {
					return err
				}
			}
			log, err := downloadlog.Load(path)
			if err != nil {
				return err
			}

			snapshot := log.Snapshot()
			var ids []string
			for _, id := range log.SeriesIDs() {
				if matchesSeries(cfg, id, seriesFilter) {
					ids = append(ids, id)
				}
			}

			if asJSON {
				entries := make([]seriesLogJSON, 0, len(ids))
				for _, id := range ids {
					entries = append(entries, seriesLogJSON{SeriesID: id, Title: seriesTitle(cfg, id), Episodes: snapshot[id]})
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintf(out, "No downloads recorded in %s\n", path)
				return nil
			}
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				episodes := snapshot[id]
				rows = append(rows, []string{
					id,
					seriesTitle(cfg, id),
					strconv.Itoa(len(episodes)),
					strings.Join(episodes, ", "),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Series", "Title", "Count", "Episodes"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&seriesFilter, "series", "s", "", "Only show a series id or titles containing this text")
	cmd.Flags().StringVarP(&logPath, "log", "l", "", "Download log path (overrides paths.download_log)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// matchesSeries reports whether a series id passes a user filter, which
// matches the id exactly or the configured title case-insensitively.
func matchesSeries(cfg *config.Config, id, filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" || filter == id {
		return true
	}
	return textutil.ContainsFold(seriesTitle(cfg, id), filter)
}

func seriesTitle(cfg *config.Config, id string) string {
	if series, ok := cfg.SeriesByID(id); ok {
		return series.Title
	}
	return ""
}
