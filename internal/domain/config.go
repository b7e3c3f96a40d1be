package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Engine       EngineConfig       `mapstructure:"engine"`
	Resolver     ResolverConfig     `mapstructure:"resolver"`
	History      HistoryConfig      `mapstructure:"history"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// NotificationConfig contains desktop notification configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download pipeline configuration
type DownloadConfig struct {
	CompletedDir   string        `mapstructure:"completed_dir"`
	LogsDir        string        `mapstructure:"logs_dir"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	SegmentRetries int           `mapstructure:"segment_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
}

// EngineConfig contains remux engine configuration
type EngineConfig struct {
	FFmpegBinary  string `mapstructure:"ffmpeg_binary"`
	FFprobeBinary string `mapstructure:"ffprobe_binary"`
	WorkDir       string `mapstructure:"work_dir"`
}

// ResolverConfig contains playback resolver configuration
type ResolverConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	AccountID  string        `mapstructure:"account_id"`
	PolicyKey  string        `mapstructure:"policy_key"`
	Origin     string        `mapstructure:"origin"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// HistoryConfig contains history persistence configuration
type HistoryConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Download: DownloadConfig{
			CompletedDir:   "$HOME/Downloads/stream-master/completed",
			LogsDir:        "$HOME/Downloads/stream-master/logs",
			FetchTimeout:   60 * time.Second,
			SegmentRetries: 2,
			RetryDelay:     2 * time.Second,
		},
		Engine: EngineConfig{
			FFmpegBinary:  "ffmpeg",
			FFprobeBinary: "ffprobe",
			WorkDir:       "",
		},
		Resolver: ResolverConfig{
			BaseURL:    "https://edge.api.brightcove.com/playback/v1",
			AccountID:  "",
			PolicyKey:  "",
			Origin:     "https://www.watchit.com",
			Timeout:    60 * time.Second,
			Retries:    3,
			RetryDelay: 2 * time.Second,
		},
		History: HistoryConfig{
			DatabasePath: "$HOME/Downloads/stream-master/history.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
