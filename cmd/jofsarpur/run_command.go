package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jofsarpur/internal/config"
	"jofsarpur/internal/downloadlog"
	"jofsarpur/internal/ffmpeg"
	"jofsarpur/internal/history"
	"jofsarpur/internal/logging"
	"jofsarpur/internal/notifications"
	"jofsarpur/internal/preflight"
	"jofsarpur/internal/queue"
	"jofsarpur/internal/ruv"
	"jofsarpur/internal/scheduler"
	"jofsarpur/internal/services"
)

// ErrRunFailures is returned when at least one download ended in error.
var ErrRunFailures = errors.New("some downloads failed")

type runOptions struct {
	logPath string
	threads int
	dryRun  bool
}

func bindRunFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVarP(&opts.logPath, "log", "l", "", "Download log path (overrides paths.download_log)")
	cmd.Flags().IntVarP(&opts.threads, "threads", "t", 0, "Maximum concurrent downloads (overrides download.max_concurrency)")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "d", false, "List what would be downloaded without downloading")
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Download new episodes (the default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownloads(cmd, ctx, opts)
		},
	}
	bindRunFlags(cmd, &opts)
	return cmd
}

// applyRunOptions folds command-line overrides into the loaded config.
func applyRunOptions(cmd *cobra.Command, cfg *config.Config, opts runOptions) error {
	if path := strings.TrimSpace(opts.logPath); path != "" {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return fmt.Errorf("resolve download log path: %w", err)
		}
		cfg.Paths.DownloadLog = expanded
	}
	if cmd.Flags().Changed("threads") {
		if opts.threads < 1 {
			return fmt.Errorf("--threads must be at least 1 (got %d)", opts.threads)
		}
		cfg.Download.MaxConcurrency = opts.threads
	}
	if opts.dryRun {
		cfg.Download.DryRun = true
	}
	return nil
}

func runDownloads(cmd *cobra.Command, ctx *commandContext, opts runOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := applyRunOptions(cmd, cfg, opts); err != nil {
		return err
	}
	if err := cfg.RequireSeries(); err != nil {
		return err
	}

	logger, runLog, err := ctx.newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	runID := history.NewRunID()
	runCtx := services.WithRunID(cmd.Context(), runID)
	logger = logging.WithContext(runCtx, logger)
	if runLog != "" {
		logger.Debug("writing run log", logging.String("path", runLog))
	}

	dryRun := cfg.Download.DryRun
	if failed := preflight.Failed(preflight.RunAll(runCtx, cfg, preflight.Options{SkipNetwork: true, DryRun: dryRun})); len(failed) > 0 {
		parts := make([]string, 0, len(failed))
		for _, r := range failed {
			parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
		return fmt.Errorf("preflight failed: %s (run `jofsarpur check` for details)", strings.Join(parts, "; "))
	}
	if !dryRun {
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
	}

	log, err := openDownloadLog(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := log.Close(); closeErr != nil {
			logger.Warn("release download log lock failed", logging.Error(closeErr))
		}
	}()

	notifier := notifications.NewService(cfg)
	result, err := planRun(runCtx, cfg, log, logger)
	if err != nil {
		notifyQuietly(logger, notifier.NotifyError(context.WithoutCancel(runCtx), err, "metadata fetch"))
		return err
	}

	runner, err := ffmpeg.New(cfg.FFmpegBinary(),
		ffmpeg.WithLogLevel(cfg.FFmpeg.LogLevel),
		ffmpeg.WithTimeout(time.Duration(cfg.FFmpeg.TimeoutSeconds)*time.Second),
	)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	pending := countWaiting(result.Tasks)
	if pending > 0 && !dryRun {
		notifyQuietly(logger, notifier.NotifyRunStarted(runCtx, pending))
	}

	sched := scheduler.New(runner, log,
		scheduler.WithMaxConcurrency(cfg.Download.MaxConcurrency),
		scheduler.WithDryRun(dryRun),
		scheduler.WithLogger(logger),
		scheduler.WithObserver(func(e scheduler.Event) {
			if line, ok := renderProgress(e, dryRun, colorize); ok {
				fmt.Fprintln(out, line)
			}
		}),
	)
	started := time.Now()
	summary, runErr := sched.Run(runCtx, result.Tasks)

	recordHistory(context.WithoutCancel(runCtx), cfg, logger, runID, started, dryRun, summary, result.Tasks, runErr)

	if !dryRun && summary != nil && summary.Tasks > 0 {
		notifyQuietly(logger, notifier.NotifyRunCompleted(context.WithoutCancel(runCtx), summary.Done, summary.Failed, summary.Duration))
	}

	renderRunSummary(out, result, summary, dryRun)

	switch {
	case runErr != nil:
		return runErr
	case summary.Failed > 0:
		return fmt.Errorf("%w: %d of %d", ErrRunFailures, summary.Failed, summary.Tasks)
	}
	return nil
}

func openDownloadLog(cfg *config.Config, logger *slog.Logger) (*downloadlog.Log, error) {
	opts := []downloadlog.Option{
		downloadlog.WithLogger(logger),
		downloadlog.WithSyncEachCompletion(cfg.Download.SyncEachCompletion),
	}
	if cfg.Download.DryRun {
		// Read without the lock; a dry run never adds entries, so Flush is a no-op.
		return downloadlog.Load(cfg.Paths.DownloadLog, opts...)
	}
	log, err := downloadlog.Open(cfg.Paths.DownloadLog, opts...)
	if errors.Is(err, downloadlog.ErrLocked) {
		return nil, fmt.Errorf("%w: %s (is another jofsarpur run active?)", err, cfg.Paths.DownloadLog)
	}
	return log, err
}

func planRun(ctx context.Context, cfg *config.Config, log queue.Membership, logger *slog.Logger) (queue.BuildResult, error) {
	client, err := ruv.New(ruv.Config{
		BaseURL:      cfg.Metadata.BaseURL,
		HTTPClient:   &http.Client{Timeout: time.Duration(cfg.Metadata.RequestTimeoutSeconds) * time.Second},
		MaxAttempts:  cfg.Metadata.MaxAttempts,
		RetryBackoff: time.Duration(cfg.Metadata.RetryBackoffSeconds) * time.Second,
		Logger:       logger,
	})
	if err != nil {
		return queue.BuildResult{}, err
	}
	planner := &queue.Planner{
		Source:      client,
		Concurrency: cfg.Metadata.LookupConcurrency,
		Logger:      logger,
	}
	return planner.Plan(ctx, queue.SpecsFromConfig(cfg), log)
}

func recordHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger, runID string, started time.Time, dryRun bool, summary *scheduler.Summary, tasks []*queue.Task, runErr error) {
	if !cfg.History.Enabled || strings.TrimSpace(cfg.Paths.HistoryDB) == "" {
		return
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.history_db or set history.enabled = false"),
		)
		return
	}
	defer store.Close()

	run := history.NewRun(runID, started, dryRun, summary, runErr)
	if err := store.RecordRun(ctx, run, history.OutcomesFromTasks(runID, tasks)); err != nil {
		logging.WarnWithContext(logger, "recording run history failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not appear in `jofsarpur history`"),
		)
	}
}

func notifyQuietly(logger *slog.Logger, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(logger, "notification failed", "notification_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
	)
}

func countWaiting(tasks []*queue.Task) int {
	n := 0
	for _, task := range tasks {
		if task.State == queue.StateWaiting {
			n++
		}
	}
	return n
}
