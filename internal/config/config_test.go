package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfig_Validate_ValidConfig(t *testing.T) {
	cfg := &Config{
		App: AppConfig{
			Env:      "development",
			LogLevel: "debug",
		},
		Contract: ContractConfig{
			StrictUnknownFields: true,
		},
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestConfig_Validate_InvalidAppEnv(t *testing.T) {
	cfg := validBaseConfig()
	cfg.App.Env = "staging"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid APP_ENV")
	}
	if !strings.Contains(err.Error(), "APP_ENV") {
		t.Errorf("expected error to mention APP_ENV, got: %v", err)
	}
}

func TestConfig_Validate_InvalidLogLevel(t *testing.T) {
	cfg := validBaseConfig()
	cfg.App.LogLevel = "verbose"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid LOG_LEVEL")
	}
	if !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Errorf("expected error to mention LOG_LEVEL, got: %v", err)
	}
}

func TestConfig_Validate_MissingEnumsFile(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Contract.EnumsFile = filepath.Join(t.TempDir(), "missing.yaml")

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing CONTRACT_ENUMS_FILE")
	}
	if !strings.Contains(err.Error(), "CONTRACT_ENUMS_FILE") {
		t.Errorf("expected error to mention CONTRACT_ENUMS_FILE, got: %v", err)
	}
}

func TestConfig_Validate_ProductionRequiresStrict(t *testing.T) {
	cfg := validBaseConfig()
	cfg.App.Env = "production"
	cfg.Contract.StrictUnknownFields = false

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for lenient production config")
	}
	if !strings.Contains(err.Error(), "CONTRACT_STRICT_UNKNOWN_FIELDS") {
		t.Errorf("expected error to mention CONTRACT_STRICT_UNKNOWN_FIELDS, got: %v", err)
	}
}

func TestConfig_Validate_LenientAllowedInDevelopment(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Contract.StrictUnknownFields = false

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected lenient development config to be valid, got: %v", err)
	}
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := &Config{
		App: AppConfig{Env: "", LogLevel: ""},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors for empty config")
	}

	errStr := err.Error()
	for _, expected := range []string{"APP_ENV", "LOG_LEVEL"} {
		if !strings.Contains(errStr, expected) {
			t.Errorf("expected error to mention %s", expected)
		}
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}

	for level, want := range tests {
		cfg := validBaseConfig()
		cfg.App.LogLevel = level
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("%s: expected %v, got %v", level, want, got)
		}
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := validBaseConfig()
	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to be true")
	}
	cfg.App.Env = "production"
	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to be false in production")
	}
}

func TestConfig_IsProduction(t *testing.T) {
	cfg := validBaseConfig()
	if cfg.IsProduction() {
		t.Error("expected IsProduction to be false in development")
	}
	cfg.App.Env = "production"
	if !cfg.IsProduction() {
		t.Error("expected IsProduction to be true")
	}
}

// ============================================================================
// Load Tests
// ============================================================================

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("APP_ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("CONTRACT_STRICT_UNKNOWN_FIELDS", "")
	t.Setenv("CONTRACT_ENUMS_FILE", "")
	t.Setenv("CONTRACT_METRICS_ENABLED", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Env != "development" || cfg.App.LogLevel != "info" {
		t.Errorf("unexpected app defaults: %+v", cfg.App)
	}
	if !cfg.Contract.StrictUnknownFields {
		t.Error("strict unknown fields should default to true")
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should default to disabled")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("CONTRACT_STRICT_UNKNOWN_FIELDS", "false")
	t.Setenv("CONTRACT_METRICS_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Env != "test" {
		t.Errorf("expected APP_ENV test, got %s", cfg.App.Env)
	}
	if cfg.App.LogLevel != "warn" {
		t.Errorf("expected log level to be lowercased, got %s", cfg.App.LogLevel)
	}
	if cfg.Contract.StrictUnknownFields {
		t.Error("expected lenient mode")
	}
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics enabled")
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("APP_ENV=test\nCONTRACT_ENUMS_FILE=/etc/sublet/enums.yaml\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	// godotenv never overrides a variable that is set, even to ""
	t.Setenv("APP_ENV", "")
	t.Setenv("CONTRACT_ENUMS_FILE", "")
	_ = os.Unsetenv("APP_ENV")
	_ = os.Unsetenv("CONTRACT_ENUMS_FILE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Env != "test" {
		t.Errorf("expected APP_ENV from file, got %s", cfg.App.Env)
	}
	if cfg.Contract.EnumsFile != "/etc/sublet/enums.yaml" {
		t.Errorf("expected CONTRACT_ENUMS_FILE from file, got %s", cfg.Contract.EnumsFile)
	}
}

// validBaseConfig returns a minimal valid configuration for testing
func validBaseConfig() *Config {
	return &Config{
		App: AppConfig{
			Env:      "development",
			LogLevel: "info",
		},
		Contract: ContractConfig{
			StrictUnknownFields: true,
		},
	}
}
