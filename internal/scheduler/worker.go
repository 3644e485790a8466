package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"jofsarpur/internal/queue"
	"jofsarpur/internal/services"
)

// outcome is what a worker reports back to the coordinator.
type outcome struct {
	task     *queue.Task
	err      error
	recorded bool
	elapsed  time.Duration
}

// prepare resolves the output path of a waiting task. Tasks that cannot be
// resolved fail here and are never admitted; in dry-run mode resolvable
// tasks complete here.
func (s *Scheduler) prepare(task *queue.Task) {
	path, err := task.ResolveOutputPath()
	if err != nil {
		task.State = queue.StateError
		task.Err = err
		return
	}
	task.OutputPath = path
	if s.dryRun {
		task.State = queue.StateDone
		return
	}
	if task.SourceURL == "" {
		task.State = queue.StateError
		task.Err = services.Wrap(services.ErrMetadataFetch, "scheduler", "prepare", task.Label()+": no stream source", nil)
	}
}

// work runs the download of one admitted task and reports the outcome. It
// never touches task.State.
func (s *Scheduler) work(ctx context.Context, task *queue.Task, results chan<- outcome) {
	start := time.Now()
	err := s.download(services.WithTask(ctx, task.SeriesID, task.EpisodeID), task)
	out := outcome{task: task, err: err, elapsed: time.Since(start)}
	if err == nil && s.log != nil {
		out.recorded = s.log.Add(task.SeriesID, task.EpisodeID)
	}
	results <- out
}

func (s *Scheduler) download(ctx context.Context, task *queue.Task) error {
	if err := os.MkdirAll(filepath.Dir(task.OutputPath), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "scheduler", "create destination directory", filepath.Dir(task.OutputPath), err)
	}
	proc, err := s.runner.Start(ctx, task.SourceURL, task.OutputPath)
	if err != nil {
		return err
	}
	return proc.Wait()
}

func failureReason(err error) string {
	if kind := services.FailureKind(err); kind != "" {
		return kind
	}
	return services.KindUnknown
}

func failureHint(err error) string {
	switch services.FailureKind(err) {
	case services.KindConfiguration:
		return "check the series filename template and download directory"
	case services.KindTimeout:
		return "raise ffmpeg.timeout_seconds or check the connection"
	case services.KindMetadata:
		return "the episode may no longer be available"
	case services.KindInterrupted:
		return "run again to download the remaining episodes"
	case services.KindProcess:
		if errors.Is(err, os.ErrNotExist) {
			return "install ffmpeg or set ffmpeg.binary"
		}
		return "inspect the ffmpeg error output above"
	default:
		return "rerun with --debug for details"
	}
}
