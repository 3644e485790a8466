package queue

import (
	"log/slog"

	"jofsarpur/internal/config"
	"jofsarpur/internal/logging"
	"jofsarpur/internal/ruv"
)

// SeriesSpec is the configuration of one followed programme.
type SeriesSpec struct {
	ID                string
	TitleOverride     string
	Template          string
	Overrides         map[string]string
	DownloadDirectory string
}

// SpecsFromConfig converts configured series, keeping their order.
func SpecsFromConfig(cfg *config.Config) []SeriesSpec {
	specs := make([]SeriesSpec, 0, len(cfg.Series))
	for _, s := range cfg.Series {
		specs = append(specs, SeriesSpec{
			ID:                s.ID,
			TitleOverride:     s.Title,
			Template:          s.Filename,
			Overrides:         s.Overrides,
			DownloadDirectory: cfg.Paths.DownloadDirectory,
		})
	}
	return specs
}

// Membership answers whether an episode has already been downloaded.
type Membership interface {
	Contains(seriesID, episodeID string) bool
}

// BuildResult is the outcome of Build.
type BuildResult struct {
	Tasks []*Task
	// Skipped lists episodes already present in the download log.
	Skipped []Key
	// Duplicates counts episodes listed more than once by the API.
	Duplicates int
}

// Build creates a Waiting task for every episode not yet in log. Series are
// visited in spec order and episodes in the order the metadata lists them.
// Series without metadata contribute nothing.
func Build(specs []SeriesSpec, metadata []*ruv.Series, log Membership, logger *slog.Logger) BuildResult {
	logger = logging.NewComponentLogger(logger, "queue")

	byID := make(map[string]*ruv.Series, len(metadata))
	for _, series := range metadata {
		if series != nil {
			byID[series.ID] = series
		}
	}

	var result BuildResult
	seen := make(map[Key]struct{})
	for _, spec := range specs {
		series, ok := byID[spec.ID]
		if !ok {
			continue
		}
		title := spec.TitleOverride
		if title == "" {
			title = series.Title
		}

		for _, episode := range series.Episodes {
			key := Key{SeriesID: spec.ID, EpisodeID: episode.ID}
			if _, dup := seen[key]; dup {
				result.Duplicates++
				logger.Debug("duplicate episode in listing",
					logging.Series(key.SeriesID),
					logging.Episode(key.EpisodeID),
				)
				continue
			}
			seen[key] = struct{}{}

			if log != nil && log.Contains(key.SeriesID, key.EpisodeID) {
				result.Skipped = append(result.Skipped, key)
				logger.Info("already downloaded, skipping",
					logging.String("title", title),
					logging.Series(key.SeriesID),
					logging.Episode(key.EpisodeID),
					logging.String(logging.FieldEventType, "task_skipped"),
				)
				continue
			}

			template := spec.Template
			if override, ok := spec.Overrides[episode.ID]; ok && override != "" {
				template = override
			}
			number, count := ParseEpisodeNumbering(episode.Title)
			result.Tasks = append(result.Tasks, &Task{
				Index:             len(result.Tasks),
				SeriesID:          key.SeriesID,
				EpisodeID:         key.EpisodeID,
				Title:             title,
				EpisodeTitle:      episode.Title,
				EpisodeNumber:     number,
				EpisodeCount:      count,
				AirDate:           episode.FirstRun,
				OutputTemplate:    template,
				DownloadDirectory: spec.DownloadDirectory,
				State:             StateWaiting,
			})
		}
	}
	return result
}
