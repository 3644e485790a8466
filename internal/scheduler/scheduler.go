package scheduler

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"jofsarpur/internal/ffmpeg"
	"jofsarpur/internal/logging"
	"jofsarpur/internal/queue"
)

// ErrNoRunnableTasks is returned when a run had tasks but every one of them
// failed before it could be admitted.
var ErrNoRunnableTasks = errors.New("no runnable tasks")

// Completion records finished downloads. Add must be safe for concurrent use.
type Completion interface {
	Add(seriesID, episodeID string) bool
	Flush() error
}

// EventKind classifies scheduler events.
type EventKind string

const (
	EventStarted EventKind = "started"
	EventDone    EventKind = "done"
	EventFailed  EventKind = "failed"
)

// Event describes one state transition. Observers are called from the
// coordinator goroutine and must not block.
type Event struct {
	Kind    EventKind
	Task    *queue.Task
	Running int
	// Admitted is false for tasks that finished during preparation.
	Admitted bool
	Elapsed  time.Duration
}

// Summary reports the outcome of a run.
type Summary struct {
	Tasks int
	Done  int
	// Failed counts every task that ended in Error, including Skipped ones.
	Failed int
	// Skipped counts tasks that were terminal before admission.
	Skipped int
	// Recorded counts new completion log entries.
	Recorded           int
	Duration           time.Duration
	MaxObservedRunning int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxConcurrency caps the number of running tasks. Values below one mean one.
func WithMaxConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n < 1 {
			n = 1
		}
		s.maxConcurrency = n
	}
}

// WithDryRun completes every resolvable task without starting a process.
func WithDryRun(enabled bool) Option {
	return func(s *Scheduler) { s.dryRun = enabled }
}

// WithLogger sets the scheduler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver registers a callback for task transitions.
func WithObserver(fn func(Event)) Option {
	return func(s *Scheduler) { s.observer = fn }
}

// Scheduler drives tasks from Waiting to a terminal state.
type Scheduler struct {
	runner         ffmpeg.Runner
	log            Completion
	maxConcurrency int
	dryRun         bool
	logger         *slog.Logger
	observer       func(Event)
}

// New constructs a scheduler. A nil log disables completion recording.
func New(runner ffmpeg.Runner, log Completion, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:         runner,
		log:            log,
		maxConcurrency: 1,
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes tasks until none is waiting or running, then flushes the log.
// Task failures never stop the run; they are reported through the tasks'
// Err fields and the summary. When ctx is cancelled no further task is
// admitted, waiting tasks fail with the context error, running tasks are
// drained, and ctx.Err() is returned.
func (s *Scheduler) Run(ctx context.Context, tasks []*queue.Task) (*Summary, error) {
	start := time.Now()
	logger := logging.NewComponentLogger(logging.WithContext(ctx, s.logger), "scheduler")
	summary := &Summary{Tasks: len(tasks)}

	ordered := slices.Clone(tasks)
	slices.SortStableFunc(ordered, func(a, b *queue.Task) int { return cmp.Compare(a.Index, b.Index) })

	pending := make([]*queue.Task, 0, len(ordered))
	for _, task := range ordered {
		if !task.State.IsTerminal() {
			s.prepare(task)
		}
		if task.State.IsTerminal() {
			summary.Skipped++
			s.settle(logger, summary, task, false, 0)
			continue
		}
		pending = append(pending, task)
	}

	logger.Info("download run started",
		logging.Int("tasks", len(ordered)),
		logging.Int("runnable", len(pending)),
		logging.Int("max_concurrency", s.maxConcurrency),
		logging.Bool("dry_run", s.dryRun),
		logging.String(logging.FieldEventType, "run_start"),
	)

	results := make(chan outcome, len(pending))
	running, next, admitted := 0, 0, 0
	ctxDone := ctx.Done()
	for {
		if ctx.Err() != nil {
			for _, task := range pending[next:] {
				task.State = queue.StateError
				task.Err = ctx.Err()
				s.settle(logger, summary, task, false, 0)
			}
			next = len(pending)
		}
		for running < s.maxConcurrency && next < len(pending) {
			task := pending[next]
			next++
			task.State = queue.StateRunning
			running++
			admitted++
			summary.MaxObservedRunning = max(summary.MaxObservedRunning, running)
			s.emit(Event{Kind: EventStarted, Task: task, Running: running, Admitted: true})
			go s.work(ctx, task, results)
		}
		if running == 0 {
			break
		}
		select {
		case out := <-results:
			running--
			if out.recorded {
				summary.Recorded++
			}
			if out.err != nil {
				out.task.State = queue.StateError
				out.task.Err = out.err
			} else {
				out.task.State = queue.StateDone
			}
			s.settle(logger, summary, out.task, true, out.elapsed)
		case <-ctxDone:
			ctxDone = nil
			logger.Warn("run cancelled; draining running downloads",
				logging.Int("running", running),
				logging.Int("waiting", len(pending)-next),
				logging.String(logging.FieldEventType, "run_cancelled"),
				logging.Alert("interrupted"),
			)
		}
	}

	var flushErr error
	if s.log != nil {
		if flushErr = s.log.Flush(); flushErr != nil {
			logging.ErrorWithContext(logger, "download log flush failed", "download_log_flush_failed",
				logging.Error(flushErr),
				logging.String(logging.FieldErrorHint, "check permissions on the download log directory"),
				logging.String(logging.FieldImpact, "completed episodes may be downloaded again next run"),
			)
		}
	}

	summary.Duration = time.Since(start)
	logger.Info("download run finished",
		logging.Int("done", summary.Done),
		logging.Int("failed", summary.Failed),
		logging.Int("recorded", summary.Recorded),
		logging.Duration("duration", summary.Duration),
		logging.String(logging.FieldEventType, "run_complete"),
	)

	switch {
	case ctx.Err() != nil:
		return summary, ctx.Err()
	case flushErr != nil:
		return summary, flushErr
	case summary.Tasks > 0 && admitted == 0 && summary.Done == 0:
		return summary, ErrNoRunnableTasks
	}
	return summary, nil
}

// settle counts a terminal task, logs it, and notifies the observer.
func (s *Scheduler) settle(logger *slog.Logger, summary *Summary, task *queue.Task, admitted bool, elapsed time.Duration) {
	taskLogger := logger.With(
		logging.String("title", task.Title),
		logging.Series(task.SeriesID),
		logging.Episode(task.EpisodeID),
	)
	event := Event{Task: task, Admitted: admitted, Elapsed: elapsed}
	switch task.State {
	case queue.StateDone:
		summary.Done++
		event.Kind = EventDone
		msg := "download complete"
		if s.dryRun {
			msg = "dry run: download skipped"
		}
		taskLogger.Info(msg,
			logging.String("output_path", task.OutputPath),
			logging.Duration("elapsed", elapsed),
			logging.String(logging.FieldEventType, "task_done"),
		)
	default:
		summary.Failed++
		event.Kind = EventFailed
		logging.ErrorWithContext(taskLogger, "download failed", "task_failed",
			logging.Error(task.Err),
			logging.String("reason", failureReason(task.Err)),
			logging.String("output_path", task.OutputPath),
			logging.String(logging.FieldErrorHint, failureHint(task.Err)),
		)
	}
	s.emit(event)
}

func (s *Scheduler) emit(event Event) {
	if s.observer != nil {
		s.observer(event)
	}
}
