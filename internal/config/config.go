package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/irontime/internal/aggregate"
	"gopkg.in/yaml.v3"
)

// Config holds client preferences
type Config struct {
	ServerURL     string `yaml:"server_url" json:"server_url"`
	WeekStart     string `yaml:"week_start" json:"week_start"`
	ConfirmDelete bool   `yaml:"confirm_delete" json:"confirm_delete"`
	EncryptNotes  bool   `yaml:"encrypt_notes" json:"encrypt_notes"`

	// Logging
	LogLevel   string `yaml:"log_level" json:"log_level"`
	LogFile    string `yaml:"log_file" json:"log_file"`
	LogConsole bool   `yaml:"log_console" json:"log_console"`
}

// Dir returns the client data directory, ~/.irontime unless IRONTIME_HOME is set
func Dir() (string, error) {
	if dir := os.Getenv("IRONTIME_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".irontime"), nil
}

// Path returns the location of config.yaml
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	logPath := ""
	if dir, err := Dir(); err == nil {
		logPath = filepath.Join(dir, "logs", "irontime.log")
	}

	return &Config{
		ServerURL:     getEnv("IRONTIME_SERVER", "http://localhost:8080"),
		WeekStart:     getEnv("IRONTIME_WEEK_START", "sunday"),
		ConfirmDelete: true,
		LogLevel:      getEnv("IRONTIME_LOG_LEVEL", "INFO"),
		LogFile:       getEnv("IRONTIME_LOG_FILE", logPath),
		LogConsole:    getEnv("IRONTIME_LOG_CONSOLE", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Load loads config from the default path
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads config from path. A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save saves config to the default path
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Weekday returns the configured first day of the week
func (c *Config) Weekday() (time.Weekday, error) {
	return aggregate.ParseWeekday(c.WeekStart)
}

// Keys lists the settings Get and Set understand
func Keys() []string {
	return []string{"server_url", "week_start", "confirm_delete", "encrypt_notes", "log_level", "log_file", "log_console"}
}

// Get returns one setting as text
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "server_url":
		return c.ServerURL, nil
	case "week_start":
		return c.WeekStart, nil
	case "confirm_delete":
		return strconv.FormatBool(c.ConfirmDelete), nil
	case "encrypt_notes":
		return strconv.FormatBool(c.EncryptNotes), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_file":
		return c.LogFile, nil
	case "log_console":
		return strconv.FormatBool(c.LogConsole), nil
	}
	return "", fmt.Errorf("unknown config key %q", key)
}

// Set changes one setting from text
func (c *Config) Set(key, value string) error {
	var err error
	switch key {
	case "server_url":
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("server_url must start with http:// or https://")
		}
		c.ServerURL = strings.TrimRight(value, "/")
	case "week_start":
		if _, err := aggregate.ParseWeekday(value); err != nil {
			return err
		}
		c.WeekStart = strings.ToLower(value)
	case "confirm_delete":
		c.ConfirmDelete, err = strconv.ParseBool(value)
	case "encrypt_notes":
		c.EncryptNotes, err = strconv.ParseBool(value)
	case "log_level":
		c.LogLevel = strings.ToUpper(value)
	case "log_file":
		c.LogFile = value
	case "log_console":
		c.LogConsole, err = strconv.ParseBool(value)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}
