package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFFmpeg()
	c.normalizeMetadata()
	c.normalizeNotifications()
	c.normalizeLogging()
	c.normalizeSeries()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DownloadDirectory) == "" {
		c.Paths.DownloadDirectory = defaultDownloadDirectory
	}
	if c.Paths.DownloadDirectory, err = expandPath(strings.TrimSpace(c.Paths.DownloadDirectory)); err != nil {
		return fmt.Errorf("paths.download_directory: %w", err)
	}
	if strings.TrimSpace(c.Paths.DownloadLog) == "" {
		c.Paths.DownloadLog = defaultDownloadLog
	}
	if c.Paths.DownloadLog, err = expandPath(strings.TrimSpace(c.Paths.DownloadLog)); err != nil {
		return fmt.Errorf("paths.download_log: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(strings.TrimSpace(c.Paths.HistoryDB)); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = defaultFFmpegBinary
	}
	c.FFmpeg.LogLevel = strings.ToLower(strings.TrimSpace(c.FFmpeg.LogLevel))
	if c.FFmpeg.LogLevel == "" {
		c.FFmpeg.LogLevel = defaultFFmpegLogLevel
	}
}

func (c *Config) normalizeMetadata() {
	c.Metadata.BaseURL = strings.TrimSpace(c.Metadata.BaseURL)
	if c.Metadata.BaseURL == "" {
		c.Metadata.BaseURL = defaultMetadataBaseURL
	}
	if c.Metadata.RequestTimeoutSeconds <= 0 {
		c.Metadata.RequestTimeoutSeconds = defaultMetadataTimeout
	}
	if c.Metadata.LookupConcurrency <= 0 {
		c.Metadata.LookupConcurrency = defaultMetadataConcurrency
	}
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("JOFSARPUR_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = value
		}
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeSeries() {
	for i := range c.Series {
		s := &c.Series[i]
		s.ID = strings.TrimSpace(s.ID)
		s.Title = strings.TrimSpace(s.Title)
		s.Filename = strings.TrimSpace(s.Filename)
		if len(s.Overrides) == 0 {
			continue
		}
		cleaned := make(map[string]string, len(s.Overrides))
		for episodeID, template := range s.Overrides {
			cleaned[strings.TrimSpace(episodeID)] = strings.TrimSpace(template)
		}
		s.Overrides = cleaned
	}
}
