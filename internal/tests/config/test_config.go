package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/you/companionsvc/internal/config"
)

// LoadTestConfig loads the project config with test-safe overrides. The
// avatar directory and bots file live under t.TempDir().
func LoadTestConfig(t *testing.T) *config.Config {
	t.Helper()

	t.Setenv("JWT_SECRET", GetTestJWTSecret())
	t.Setenv("OPENAI_API_KEY", "test-openai-key")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := config.LoadFile(filepath.Join(GetProjectRoot(), "config", "config.yml"))
	if err != nil {
		t.Fatalf("Failed to load test configuration: %v", err)
	}

	dir := t.TempDir()
	cfg.GinMode = "test"
	cfg.AvatarBackend = config.BackendDisk
	cfg.AvatarDir = filepath.Join(dir, "uploads")
	cfg.BotsFile = filepath.Join(dir, "bots.json")
	cfg.MaxAvatarBytes = 64 << 10
	cfg.ChatBackend = config.BackendDatabase
	cfg.OTP_MaxAttempts = 3
	cfg.RequireToken = true
	cfg.MetricsEnabled = true

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Invalid test configuration: %v", err)
	}
	return cfg
}

// GetTestJWTSecret returns a deterministic JWT secret for testing
func GetTestJWTSecret() string {
	return "test-jwt-secret-for-e2e-flows"
}

// GetProjectRoot returns the directory holding go.mod
func GetProjectRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}

	for {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd
		}

		parent := filepath.Dir(wd)
		if parent == wd {
			break
		}
		wd = parent
	}

	return "."
}
