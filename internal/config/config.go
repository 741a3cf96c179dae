package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// YouTube extraction backends.
const (
	BackendYtdlp  = "ytdlp"
	BackendNative = "native"
)

// Config holds bot process configuration.
type Config struct {
	Token   string `envconfig:"TOKEN" required:"true"`
	AdminID int64  `envconfig:"ADMIN_ID" default:"0"`
	Port    int    `envconfig:"PORT" default:"10000"`

	Store    StoreConfig
	Download DownloadConfig
	Log      LogConfig
}

// StoreConfig is shared by the bot and the dashboard so both open the same file.
type StoreConfig struct {
	Path string `envconfig:"DB_PATH" default:"/tmp/bot.db"`
}

// DownloadConfig holds media fetch configuration.
type DownloadConfig struct {
	Dir            string `envconfig:"DOWNLOAD_PATH" default:"/tmp/downloads"`
	MaxFileSize    int64  `envconfig:"MAX_FILE_SIZE" default:"52428800"` // 50 MiB
	YtdlpPath      string `envconfig:"YTDLP_PATH" default:"yt-dlp"`
	YouTubeBackend string `envconfig:"YOUTUBE_BACKEND" default:"ytdlp"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// DashboardConfig holds reporting surface configuration.
type DashboardConfig struct {
	Port  int `envconfig:"DASHBOARD_PORT" default:"5000"`
	Store StoreConfig
	Log   LogConfig
}

// Load reads bot configuration from the environment, after applying an
// optional .env file from the working directory.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadDashboard reads reporting surface configuration.
func LoadDashboard() (*DashboardConfig, error) {
	loadDotEnv()

	cfg := &DashboardConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("validate config: DASHBOARD_PORT must be positive")
	}
	return cfg, nil
}

// Validate checks configuration values that envconfig cannot.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("TOKEN is required")
	}
	if c.Port <= 0 {
		return fmt.Errorf("PORT must be positive")
	}
	if c.Download.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive")
	}
	switch c.Download.YouTubeBackend {
	case BackendYtdlp, BackendNative:
	default:
		return fmt.Errorf("YOUTUBE_BACKEND must be %q or %q, got %q", BackendYtdlp, BackendNative, c.Download.YouTubeBackend)
	}
	return nil
}

// Address returns the liveness listen address.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Address returns the dashboard listen address.
func (c *DashboardConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
}
