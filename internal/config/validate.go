package config

import (
	"errors"
	"fmt"
	"strconv"

	"jofsarpur/internal/pathtemplate"
)

// ErrNoSeries reports a configuration without any series to follow.
var ErrNoSeries = errors.New("no series configured")

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateSeries(); err != nil {
		return err
	}
	return nil
}

// RequireSeries reports ErrNoSeries when nothing is configured for download.
func (c *Config) RequireSeries() error {
	if len(c.Series) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("%w: add a [[series]] table to %s (create one with 'jofsarpur config init')", ErrNoSeries, defaultPath)
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.MaxConcurrency < 1 {
		return errors.New("download.max_concurrency must be at least 1")
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	if c.FFmpeg.TimeoutSeconds < 0 {
		return errors.New("ffmpeg.timeout_seconds must be zero (no timeout) or positive")
	}
	switch c.FFmpeg.LogLevel {
	case "quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug", "trace":
		return nil
	default:
		return fmt.Errorf("ffmpeg.loglevel: unsupported value %q", c.FFmpeg.LogLevel)
	}
}

func (c *Config) validateMetadata() error {
	if c.Metadata.MaxAttempts < 0 {
		return errors.New("metadata.max_attempts must be zero (unbounded) or positive")
	}
	if c.Metadata.RetryBackoffSeconds < 0 {
		return errors.New("metadata.retry_backoff_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}

func (c *Config) validateSeries() error {
	seen := make(map[string]struct{}, len(c.Series))
	for i, s := range c.Series {
		if s.ID == "" {
			return fmt.Errorf("series[%d].id must be set", i)
		}
		if _, err := strconv.ParseUint(s.ID, 10, 64); err != nil {
			return fmt.Errorf("series[%d].id %q must be a numeric programme id", i, s.ID)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("series[%d].id %q is configured more than once", i, s.ID)
		}
		seen[s.ID] = struct{}{}
		if s.Filename == "" {
			return fmt.Errorf("series %s: filename template must be set", s.ID)
		}
		if err := pathtemplate.Check(s.Filename); err != nil {
			return fmt.Errorf("series %s: filename: %w", s.ID, err)
		}
		for episodeID, template := range s.Overrides {
			if episodeID == "" || template == "" {
				return fmt.Errorf("series %s: overrides need both an episode id and a template", s.ID)
			}
			if err := pathtemplate.Check(template); err != nil {
				return fmt.Errorf("series %s: override %s: %w", s.ID, episodeID, err)
			}
		}
	}
	return nil
}
