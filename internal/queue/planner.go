package queue

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"jofsarpur/internal/logging"
	"jofsarpur/internal/ruv"
	"jofsarpur/internal/services"
)

// MetadataSource supplies programme listings and stream locations.
type MetadataSource interface {
	StreamResolver
	Series(ctx context.Context, seriesID string) (*ruv.Series, error)
}

// Planner fetches metadata for the configured series and turns it into a
// queue of tasks with resolved sources.
type Planner struct {
	Source      MetadataSource
	Concurrency int
	Logger      *slog.Logger
}

// Plan fetches every series, builds the task list, and resolves stream
// locations. A series whose fetch fails is logged and contributes no tasks;
// Plan only fails when every series failed or ctx is done.
func (p *Planner) Plan(ctx context.Context, specs []SeriesSpec, log Membership) (BuildResult, error) {
	logger := logging.NewComponentLogger(p.Logger, "planner")
	concurrency := p.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	metadata := make([]*ruv.Series, len(specs))
	errs := make([]error, len(specs))

	var group errgroup.Group
	group.SetLimit(concurrency)
	for i, spec := range specs {
		group.Go(func() error {
			series, err := p.Source.Series(ctx, spec.ID)
			if err == nil && series == nil {
				err = services.Wrap(services.ErrNotFound, "planner", "fetch series", spec.ID, nil)
			}
			if err != nil {
				errs[i] = err
				return nil
			}
			metadata[i] = series
			return nil
		})
	}
	_ = group.Wait()
	if err := ctx.Err(); err != nil {
		return BuildResult{}, err
	}

	failed := 0
	var lastErr error
	for i, spec := range specs {
		if err := errs[i]; err != nil {
			failed++
			lastErr = err
			logging.WarnWithContext(logger, "series metadata unavailable", "metadata_fetch_failed",
				logging.Series(spec.ID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the programme id and network access to ruv.is"),
				logging.String(logging.FieldImpact, "no episodes of this series are downloaded this run"),
			)
			continue
		}
		logger.Info("fetched series metadata",
			logging.String("title", metadata[i].Title),
			logging.Series(spec.ID),
			logging.Int("episodes", len(metadata[i].Episodes)),
		)
	}
	if len(specs) > 0 && failed == len(specs) {
		return BuildResult{}, services.Wrap(services.ErrMetadataFetch, "planner", "plan",
			fmt.Sprintf("all %d series failed", failed), lastErr)
	}

	result := Build(specs, metadata, log, p.Logger)
	if err := ResolveSources(ctx, result.Tasks, p.Source, concurrency); err != nil {
		return result, err
	}
	for _, task := range result.Tasks {
		if task.State == StateError {
			logging.ErrorWithContext(logger, "stream lookup failed", "stream_lookup_failed",
				logging.String("title", task.Title),
				logging.Series(task.SeriesID),
				logging.Episode(task.EpisodeID),
				logging.Error(task.Err),
				logging.String(logging.FieldErrorHint, "the episode may no longer be available"),
			)
		}
	}
	return result, nil
}
