package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Fetcher    FetcherConfig
	Extraction ExtractionConfig
	Cache      CacheConfig
	Session    SessionConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// FetcherConfig holds product page host configuration
type FetcherConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	ProductPath      string        `mapstructure:"product_path"` // must contain {EAN}
	UserAgent        string        `mapstructure:"user_agent"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RetryCount       int           `mapstructure:"retry_count"`
	RetryWait        time.Duration `mapstructure:"retry_wait"`
	CloudflareBypass bool          `mapstructure:"cloudflare_bypass"`
}

// ExtractionConfig selects how product pages are read
type ExtractionConfig struct {
	DOMFallback   bool `mapstructure:"dom_fallback"`
	NutrientGroup int  `mapstructure:"nutrient_group"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // "memory" or "lru"
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// SessionConfig bounds the live session registry
type SessionConfig struct {
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP        int     `mapstructure:"per_ip"`  // requests per minute
	Fetcher      float64 `mapstructure:"fetcher"` // requests per second
	FetcherBurst int     `mapstructure:"fetcher_burst"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/eaninfo/")

	// EANINFO_FETCHER_BASE_URL maps to fetcher.base_url
	v.SetEnvPrefix("EANINFO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile exports variables from ./.env without overriding the environment
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return gotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})

	// Fetcher defaults
	v.SetDefault("fetcher.base_url", "https://www.s-kaupat.fi")
	v.SetDefault("fetcher.product_path", "/tuote/{EAN}")
	v.SetDefault("fetcher.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	v.SetDefault("fetcher.timeout", "30s")
	v.SetDefault("fetcher.retry_count", 2)
	v.SetDefault("fetcher.retry_wait", "500ms")
	v.SetDefault("fetcher.cloudflare_bypass", false)

	// Extraction defaults
	v.SetDefault("extraction.dom_fallback", false)
	v.SetDefault("extraction.nutrient_group", 0)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.size", 1000)
	v.SetDefault("cache.ttl", "24h")

	// Session defaults
	v.SetDefault("session.capacity", 1024)
	v.SetDefault("session.ttl", "30m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.fetcher", 2.0)
	v.SetDefault("ratelimit.fetcher_burst", 5)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Fetcher.BaseURL == "" {
		return fmt.Errorf("fetcher base URL is required (set EANINFO_FETCHER_BASE_URL)")
	}

	if !strings.Contains(config.Fetcher.ProductPath, "{EAN}") {
		return fmt.Errorf("fetcher product path must contain {EAN}, got: %s", config.Fetcher.ProductPath)
	}

	if config.Fetcher.RetryCount < 0 {
		return fmt.Errorf("fetcher retry count must not be negative, got: %d", config.Fetcher.RetryCount)
	}

	if config.Extraction.NutrientGroup < 0 {
		return fmt.Errorf("nutrient group must not be negative, got: %d", config.Extraction.NutrientGroup)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "lru" {
		return fmt.Errorf("cache type must be 'memory' or 'lru', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "lru" && config.Cache.Size <= 0 {
		return fmt.Errorf("cache size must be positive when cache type is 'lru'")
	}

	if _, err := config.Log.SlogLevel(); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'text' or 'json', got: %s", config.Log.Format)
	}

	return nil
}

// SlogLevel parses the configured level name (debug, info, warn, error)
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}
