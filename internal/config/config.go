// Package config loads server settings from an optional YAML file, then
// applies SALESDASH_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is read when SALESDASH_CONFIG_PATH is unset.
	DefaultConfigPath = "salesdash.yaml"

	// ConfigPathEnvVar names the environment variable holding the config path.
	ConfigPathEnvVar = "SALESDASH_CONFIG_PATH"

	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	maxPort                = 65535
	defaultMaxUploadSize   = "16M"
	defaultRateLimit       = 5.0
	defaultShutdownTimeout = 10 * time.Second
)

var (
	ErrInvalidPort            = errors.New("invalid port")
	ErrEmptyHost              = errors.New("host cannot be empty")
	ErrInvalidRateLimit       = errors.New("rate limit must be positive")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidLogFormat       = errors.New("log format must be json or text")
)

type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// DataPath is a CSV/XLSX file loaded at startup. Empty means the built-in sample.
	DataPath    string `yaml:"data_path"`
	CSVEncoding string `yaml:"csv_encoding"`

	// MaxUploadSize uses echo's BodyLimit syntax, e.g. "16M".
	MaxUploadSize string `yaml:"max_upload_size"`
	// RateLimit is uploads per second per client IP.
	RateLimit float64 `yaml:"rate_limit"`

	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func defaults() *Config {
	return &Config{
		Host:            defaultHost,
		Port:            defaultPort,
		MaxUploadSize:   defaultMaxUploadSize,
		RateLimit:       defaultRateLimit,
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// Load reads path (a missing file is fine) and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted config
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("Config file not found, using defaults", slog.String("path", path))
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	case len(data) > 0:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	return cfg, nil
}

// LoadFromEnv loads the file named by SALESDASH_CONFIG_PATH, or salesdash.yaml.
func LoadFromEnv() (*Config, error) {
	return Load(GetEnvStr(ConfigPathEnvVar, DefaultConfigPath))
}

func (c *Config) applyEnv() {
	c.Host = GetEnvStr("SALESDASH_HOST", c.Host)
	c.Port = GetEnvInt("SALESDASH_PORT", c.Port)
	c.DataPath = GetEnvStr("SALESDASH_DATA_PATH", c.DataPath)
	c.CSVEncoding = GetEnvStr("SALESDASH_CSV_ENCODING", c.CSVEncoding)
	c.MaxUploadSize = GetEnvStr("SALESDASH_MAX_UPLOAD_SIZE", c.MaxUploadSize)
	c.RateLimit = GetEnvFloat("SALESDASH_RATE_LIMIT", c.RateLimit)
	c.LogLevel = GetEnvStr("SALESDASH_LOG_LEVEL", c.LogLevel)
	c.LogFormat = GetEnvStr("SALESDASH_LOG_FORMAT", c.LogFormat)
	c.ShutdownTimeout = GetEnvDuration("SALESDASH_SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
}

// Address returns host:port.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) SlogLevel() slog.Level {
	return ParseLogLevel(c.LogLevel, slog.LevelInfo)
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > maxPort {
		return fmt.Errorf("%w: %d, must be between 1 and %d", ErrInvalidPort, c.Port, maxPort)
	}

	if c.Host == "" {
		return ErrEmptyHost
	}

	if c.RateLimit <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidRateLimit, c.RateLimit)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidShutdownTimeout, c.ShutdownTimeout)
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("%w: got %q", ErrInvalidLogFormat, c.LogFormat)
	}

	return nil
}

// NewLogger builds the process logger from LogFormat and LogLevel.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
