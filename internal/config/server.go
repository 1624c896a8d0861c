package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/existflow/irontime/internal/aggregate"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Cache backends
const (
	CacheMemory   = "memory"
	CachePostgres = "postgres"
)

// ServerConfig holds the settings of irontime-server
type ServerConfig struct {
	Port            string        `yaml:"port"`
	DatabaseURL     string        `yaml:"database_url"`
	CacheBackend    string        `yaml:"cache_backend"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	RateLimit       int           `yaml:"rate_limit"`
	RateWindow      time.Duration `yaml:"rate_window"`
	WeekStart       string        `yaml:"week_start"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	CleanupSchedule string        `yaml:"cleanup_schedule"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	LogFile         string        `yaml:"log_file"`
}

// DefaultServerConfig returns the built-in server settings
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            "8080",
		DatabaseURL:     "postgres://localhost:5432/irontime?sslmode=disable",
		CacheBackend:    CacheMemory,
		CacheTTL:        5 * time.Minute,
		RateLimit:       60,
		RateWindow:      time.Minute,
		WeekStart:       "sunday",
		SessionTTL:      30 * 24 * time.Hour,
		CleanupSchedule: "*/10 * * * *",
		LogLevel:        "INFO",
		LogFormat:       "text",
	}
}

// LoadServer reads .env if present, then the YAML file named by
// IRONTIME_SERVER_CONFIG, then environment overrides.
func LoadServer() (*ServerConfig, error) {
	_ = godotenv.Load()

	cfg := DefaultServerConfig()
	if path := os.Getenv("IRONTIME_SERVER_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read server config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse server config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServerConfig) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.CacheBackend = getEnv("IRONTIME_CACHE_BACKEND", c.CacheBackend)
	c.WeekStart = getEnv("IRONTIME_WEEK_START", c.WeekStart)
	c.CleanupSchedule = getEnv("IRONTIME_CLEANUP_SCHEDULE", c.CleanupSchedule)
	c.LogLevel = getEnv("IRONTIME_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("IRONTIME_LOG_FORMAT", c.LogFormat)
	c.LogFile = getEnv("IRONTIME_LOG_FILE", c.LogFile)

	durations := map[string]*time.Duration{
		"IRONTIME_CACHE_TTL":   &c.CacheTTL,
		"IRONTIME_RATE_WINDOW": &c.RateWindow,
		"IRONTIME_SESSION_TTL": &c.SessionTTL,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}

	if v := os.Getenv("IRONTIME_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid IRONTIME_RATE_LIMIT: %w", err)
		}
		c.RateLimit = n
	}
	return nil
}

// Validate checks the settings for consistency
func (c *ServerConfig) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database url is required")
	}
	if c.CacheBackend != CacheMemory && c.CacheBackend != CachePostgres {
		return fmt.Errorf("cache backend must be %q or %q", CacheMemory, CachePostgres)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("rate window must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if _, err := aggregate.ParseWeekday(c.WeekStart); err != nil {
		return err
	}
	if _, err := cron.ParseStandard(c.CleanupSchedule); err != nil {
		return fmt.Errorf("invalid cleanup schedule: %w", err)
	}
	return nil
}

// Weekday returns the configured first day of the week
func (c *ServerConfig) Weekday() time.Weekday {
	d, _ := aggregate.ParseWeekday(c.WeekStart)
	return d
}
