package preflight

import (
	"context"
	"strings"

	"jofsarpur/internal/config"
	"jofsarpur/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional results do not block a run.
	Optional bool
}

// Options selects which checks RunAll performs.
type Options struct {
	// SkipNetwork omits the metadata API reachability check.
	SkipNetwork bool
	// DryRun omits checks that only matter when files are written.
	DryRun bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if !opts.DryRun {
		for _, status := range CheckSystemDeps(cfg) {
			results = append(results, resultFromStatus(status))
		}
		results = append(results, CheckCreatableDirectory("Download directory", cfg.Paths.DownloadDirectory))
		results = append(results, CheckWritableFile("Download log", cfg.Paths.DownloadLog))
	}
	if strings.TrimSpace(cfg.Paths.LogDir) != "" {
		results = append(results, optional(CheckCreatableDirectory("Log directory", cfg.Paths.LogDir)))
	}
	if cfg.History.Enabled && strings.TrimSpace(cfg.Paths.HistoryDB) != "" {
		results = append(results, optional(CheckWritableFile("History database", cfg.Paths.HistoryDB)))
	}
	if !opts.SkipNetwork {
		results = append(results, CheckMetadataAPI(ctx, cfg.Metadata.BaseURL))
	}
	return results
}

// Failed returns the non-optional results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

// CheckSystemDeps evaluates the external binaries required by the config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for stream copying",
		},
	})
}

func resultFromStatus(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional}
	if status.Available {
		result.Detail = status.Path
	} else {
		result.Detail = status.Detail
	}
	return result
}

func optional(r Result) Result {
	r.Optional = true
	return r
}
