package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Contract ContractConfig
	Metrics  MetricsConfig
}

// AppConfig holds process-wide settings
type AppConfig struct {
	Env      string
	LogLevel string
}

// ContractConfig holds validation and registry settings
type ContractConfig struct {
	// StrictUnknownFields rejects undeclared payload fields when true and
	// drops them when false
	StrictUnknownFields bool
	// EnumsFile optionally extends the built-in enumerations (YAML)
	EnumsFile string
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled bool
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file (or the file named by ENV_FILE) is read first if
// present; variables already set in the environment win.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	return &Config{
		App: AppConfig{
			Env:      getEnv("APP_ENV", "development"),
			LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
		Contract: ContractConfig{
			StrictUnknownFields: getBoolEnv("CONTRACT_STRICT_UNKNOWN_FIELDS", true),
			EnumsFile:           getEnv("CONTRACT_ENUMS_FILE", ""),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("CONTRACT_METRICS_ENABLED", false),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel returns the configured log level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	if level, ok := logLevels[c.App.LogLevel]; ok {
		return level
	}
	return slog.LevelInfo
}

// Validate checks that all configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env != "development" && c.App.Env != "production" && c.App.Env != "test" {
		errs = append(errs, fmt.Errorf("APP_ENV must be 'development', 'production', or 'test', got '%s'", c.App.Env))
	}
	if _, ok := logLevels[c.App.LogLevel]; !ok {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got '%s'", c.App.LogLevel))
	}

	if c.Contract.EnumsFile != "" {
		if _, err := os.Stat(c.Contract.EnumsFile); err != nil {
			errs = append(errs, fmt.Errorf("CONTRACT_ENUMS_FILE: %w", err))
		}
	}

	// Lenient mode is development and test only
	if c.IsProduction() && !c.Contract.StrictUnknownFields {
		errs = append(errs, errors.New("CONTRACT_STRICT_UNKNOWN_FIELDS must be true in production"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
