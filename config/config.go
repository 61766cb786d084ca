package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig
	Serper SerperConfig
	Search SearchConfig
	Runs   RunsConfig
	Log    LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
}

// SerperConfig holds places API configuration
type SerperConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"` // requests per second, 0 disables
	Burst     int           `mapstructure:"burst"`
}

// SearchConfig controls pagination of a single query
type SearchConfig struct {
	PageDelay time.Duration `mapstructure:"page_delay"`
	MaxPages  int           `mapstructure:"max_pages"` // 0 means no ceiling
	DefaultGL string        `mapstructure:"default_gl"`
	DefaultHL string        `mapstructure:"default_hl"`
}

// RunsConfig controls how finished runs are kept for download
type RunsConfig struct {
	TTL          time.Duration `mapstructure:"ttl"`
	SweepCron    string        `mapstructure:"sweep_cron"`
	HistoryLimit int           `mapstructure:"history_limit"`
	PreviewLimit int           `mapstructure:"preview_limit"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"` // "console" or "json"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/localrank/")

	// Environment variable settings
	v.SetEnvPrefix("LOCALRANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// The places API documents its key as a bare SERPER_API_KEY
	if config.Serper.APIKey == "" {
		config.Serper.APIKey = os.Getenv("SERPER_API_KEY")
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5000"})
	v.SetDefault("server.max_upload_bytes", 10*1024*1024)

	// Serper defaults
	v.SetDefault("serper.api_key", "")
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("serper.timeout", "30s")
	v.SetDefault("serper.rate_limit", 0)
	v.SetDefault("serper.burst", 1)

	// Search defaults
	v.SetDefault("search.page_delay", "1s")
	v.SetDefault("search.max_pages", 0)
	v.SetDefault("search.default_gl", "gb")
	v.SetDefault("search.default_hl", "en")

	// Run retention defaults
	v.SetDefault("runs.ttl", "1h")
	v.SetDefault("runs.sweep_cron", "@every 10m")
	v.SetDefault("runs.history_limit", 10)
	v.SetDefault("runs.preview_limit", 100)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
}

// validate validates the configuration.
// A missing API key is not an error here: every provider call reports it.
func validate(config *Config) error {
	if config.Serper.BaseURL == "" {
		return fmt.Errorf("serper base URL is required (set LOCALRANK_SERPER_BASE_URL)")
	}

	if config.Serper.RateLimit < 0 {
		return fmt.Errorf("serper rate limit must not be negative, got: %v", config.Serper.RateLimit)
	}

	if config.Search.PageDelay < 0 {
		return fmt.Errorf("search page delay must not be negative, got: %s", config.Search.PageDelay)
	}

	if config.Search.MaxPages < 0 {
		return fmt.Errorf("search max pages must not be negative, got: %d", config.Search.MaxPages)
	}

	if config.Runs.TTL <= 0 {
		return fmt.Errorf("runs TTL must be positive, got: %s", config.Runs.TTL)
	}

	if _, err := cron.ParseStandard(config.Runs.SweepCron); err != nil {
		return fmt.Errorf("runs sweep cron %q is invalid: %w", config.Runs.SweepCron, err)
	}

	if config.Log.Encoding != "console" && config.Log.Encoding != "json" {
		return fmt.Errorf("log encoding must be 'console' or 'json', got: %s", config.Log.Encoding)
	}

	return nil
}
