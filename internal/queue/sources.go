package queue

import (
	"context"

	"golang.org/x/sync/errgroup"

	"jofsarpur/internal/services"
)

// StreamResolver looks up where an episode can be streamed from.
type StreamResolver interface {
	StreamURL(ctx context.Context, seriesID, episodeID string) (string, error)
}

// ResolveSources fills SourceURL on every Waiting task, running up to
// concurrency lookups at once. A task whose lookup fails moves to Error and
// will never be admitted. The only error returned is ctx's.
func ResolveSources(ctx context.Context, tasks []*Task, resolver StreamResolver, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}
	var group errgroup.Group
	group.SetLimit(concurrency)

	for _, task := range tasks {
		if task.State != StateWaiting || task.SourceURL != "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		group.Go(func() error {
			url, err := resolver.StreamURL(ctx, task.SeriesID, task.EpisodeID)
			if err != nil {
				task.State = StateError
				task.Err = services.Wrap(services.ErrMetadataFetch, "queue", "stream lookup", task.Label(), err)
				return nil
			}
			task.SourceURL = url
			return nil
		})
	}
	_ = group.Wait()
	return ctx.Err()
}
