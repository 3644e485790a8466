package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	seriesIDKey  contextKey = "series_id"
	episodeIDKey contextKey = "episode_id"
)

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithTask annotates context with the series and episode a task operates on.
func WithTask(ctx context.Context, seriesID, episodeID string) context.Context {
	if seriesID != "" {
		ctx = context.WithValue(ctx, seriesIDKey, seriesID)
	}
	if episodeID != "" {
		ctx = context.WithValue(ctx, episodeIDKey, episodeID)
	}
	return ctx
}

// SeriesIDFromContext returns the series identifier if present.
func SeriesIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(seriesIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// EpisodeIDFromContext returns the episode identifier if present.
func EpisodeIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(episodeIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
