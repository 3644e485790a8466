package config

const (
	defaultConfigPath           = "~/.config/jofsarpur/config.toml"
	systemConfigPath            = "/etc/jofsarpur.toml"
	defaultDownloadDirectory    = "~/Videos/ruv"
	defaultDownloadLog          = "~/.jofsarpur-downloads.json"
	defaultHistoryDB            = "~/.local/share/jofsarpur/history.db"
	defaultMaxConcurrency       = 4
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFmpegLogLevel       = "error"
	defaultMetadataBaseURL      = "https://www.ruv.is/gql/"
	defaultMetadataMaxAttempts  = 10
	defaultMetadataRetryBackoff = 1
	defaultMetadataTimeout      = 30
	defaultMetadataConcurrency  = 4
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDirectory: defaultDownloadDirectory,
			DownloadLog:       defaultDownloadLog,
			HistoryDB:         defaultHistoryDB,
		},
		Download: Download{
			MaxConcurrency: defaultMaxConcurrency,
		},
		FFmpeg: FFmpeg{
			Binary:   defaultFFmpegBinary,
			LogLevel: defaultFFmpegLogLevel,
		},
		Metadata: Metadata{
			BaseURL:               defaultMetadataBaseURL,
			MaxAttempts:           defaultMetadataMaxAttempts,
			RetryBackoffSeconds:   defaultMetadataRetryBackoff,
			RequestTimeoutSeconds: defaultMetadataTimeout,
			LookupConcurrency:     defaultMetadataConcurrency,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
