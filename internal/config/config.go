package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// DatabasePath is the SQLite file holding devices, groups and files.
	DatabasePath string

	EcoWitt  EcoWittConfig
	Forecast ForecastConfig
	Redis    RedisConfig
	S3       S3Config
	PDF      PDFConfig

	// GroupConcurrency bounds the member reports built in parallel.
	GroupConcurrency int
}

type EcoWittConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RateLimitDelay time.Duration
}

type ForecastConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	OpenMeteoEnabled   bool
	OpenMeteoBaseURL   string
	CacheTTL           time.Duration
	CacheMaxEntries    int
	GeocoderAPIKey     string
}

// RedisConfig enables the shared forecast cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// S3Config enables report file delivery when Bucket is set.
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

type PDFConfig struct {
	Enabled    bool
	ChromePath string
	Timeout    time.Duration
}

// LoadDotEnv loads a .env file into the process environment if one exists.
func LoadDotEnv(paths ...string) error {
	return godotenv.Load(paths...)
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &AppConfig{
		Port:             v.GetString("PORT"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		ShutdownTimeout:  v.GetDuration("SHUTDOWN_TIMEOUT"),
		DatabasePath:     v.GetString("DATABASE_PATH"),
		GroupConcurrency: v.GetInt("GROUP_CONCURRENCY"),
		EcoWitt: EcoWittConfig{
			BaseURL:        v.GetString("ECOWITT_BASE_URL"),
			Timeout:        v.GetDuration("VENDOR_TIMEOUT"),
			RateLimitDelay: v.GetDuration("RATE_LIMIT_DELAY"),
		},
		Forecast: ForecastConfig{
			OpenWeatherAPIKey:  v.GetString("OPENWEATHER_API_KEY"),
			OpenWeatherBaseURL: v.GetString("OPENWEATHER_BASE_URL"),
			OpenMeteoEnabled:   v.GetBool("OPENMETEO_ENABLED"),
			OpenMeteoBaseURL:   v.GetString("OPENMETEO_BASE_URL"),
			CacheTTL:           v.GetDuration("FORECAST_CACHE_TTL"),
			CacheMaxEntries:    v.GetInt("FORECAST_CACHE_MAX_ENTRIES"),
			GeocoderAPIKey:     v.GetString("GEOCODER_API_KEY"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		S3: S3Config{
			Region:          v.GetString("S3_REGION"),
			Bucket:          v.GetString("S3_BUCKET"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			PublicBaseURL:   strings.TrimRight(v.GetString("S3_PUBLIC_BASE_URL"), "/"),
		},
		PDF: PDFConfig{
			Enabled:    v.GetBool("PDF_ENABLED"),
			ChromePath: v.GetString("CHROME_PATH"),
			Timeout:    v.GetDuration("PDF_TIMEOUT"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DATABASE_PATH", "agritech.db")
	v.SetDefault("GROUP_CONCURRENCY", 4)

	// EcoWitt
	v.SetDefault("ECOWITT_BASE_URL", "https://api.ecowitt.net/api/v3")
	v.SetDefault("VENDOR_TIMEOUT", "10s")
	v.SetDefault("RATE_LIMIT_DELAY", "2s")

	// Forecast
	v.SetDefault("OPENMETEO_ENABLED", true)
	v.SetDefault("FORECAST_CACHE_TTL", "30m")
	v.SetDefault("FORECAST_CACHE_MAX_ENTRIES", 512)

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("S3_REGION", "us-east-1")

	v.SetDefault("PDF_ENABLED", true)
	v.SetDefault("PDF_TIMEOUT", "30s")
}

func validate(cfg *AppConfig) error {
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", cfg.Port)
	}
	if cfg.DatabasePath == "" {
		return errors.New("DATABASE_PATH is required")
	}
	if cfg.GroupConcurrency < 1 {
		return fmt.Errorf("GROUP_CONCURRENCY must be at least 1, got %d", cfg.GroupConcurrency)
	}
	if cfg.EcoWitt.Timeout <= 0 {
		return errors.New("VENDOR_TIMEOUT must be positive")
	}
	if cfg.EcoWitt.RateLimitDelay < 0 {
		return errors.New("RATE_LIMIT_DELAY must not be negative")
	}
	if cfg.Forecast.CacheTTL < 0 {
		return errors.New("FORECAST_CACHE_TTL must not be negative")
	}
	return nil
}
