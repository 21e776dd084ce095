package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/illarion/pasco/internal/attempts"
	"github.com/illarion/pasco/internal/crypto"
	"github.com/rs/zerolog"
)

// isolate points every lookup at a temp dir and clears pasco variables.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("AppData", dir)
	for _, key := range []string{EnvConfig, EnvHome, EnvIterations, EnvMaxAttempts, EnvLogLevel} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Iterations != crypto.DefaultIterations {
		t.Errorf("Iterations = %d, want %d", cfg.Iterations, crypto.DefaultIterations)
	}
	if cfg.MaxAttempts != attempts.DefaultMaxAttempts {
		t.Errorf("MaxAttempts = %d, want %d", cfg.MaxAttempts, attempts.DefaultMaxAttempts)
	}
	if cfg.LogLevel != zerolog.WarnLevel {
		t.Errorf("LogLevel = %s, want warn", cfg.LogLevel)
	}
	if filepath.Base(cfg.Home) != appDir {
		t.Errorf("Home = %s, want a %s directory", cfg.Home, appDir)
	}
	if filepath.Dir(cfg.DatabasePath()) != cfg.Home {
		t.Errorf("DatabasePath %s not inside %s", cfg.DatabasePath(), cfg.Home)
	}
}

func TestLoadEnvironment(t *testing.T) {
	dir := isolate(t)
	t.Setenv(EnvHome, filepath.Join(dir, "state"))
	t.Setenv(EnvIterations, "1")
	t.Setenv(EnvMaxAttempts, "3")
	t.Setenv(EnvLogLevel, "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Home != filepath.Join(dir, "state") {
		t.Errorf("Home = %s", cfg.Home)
	}
	if cfg.Iterations != crypto.MinIterations {
		t.Errorf("Iterations should be clamped, got %d", cfg.Iterations)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.LogLevel != zerolog.DebugLevel {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
}

func TestLoadDotenvFile(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "pasco.env")
	content := "PASCO_MAX_ATTEMPTS=7\nPASCO_ITERATIONS=300000\n"
	if err := os.WriteFile(file, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv(EnvConfig, file)
	// The real environment wins over the file
	t.Setenv(EnvIterations, "400000")
	os.Unsetenv(EnvMaxAttempts)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxAttempts != 7 {
		t.Errorf("MaxAttempts = %d, want 7 from file", cfg.MaxAttempts)
	}
	if cfg.Iterations != 400000 {
		t.Errorf("Iterations = %d, want 400000 from environment", cfg.Iterations)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv(EnvConfig, filepath.Join(dir, "missing.env"))

	if _, err := Load(); err == nil {
		t.Error("Expected error for a missing explicit config file")
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvIterations, "many"},
		{EnvMaxAttempts, "0"},
		{EnvMaxAttempts, "-1"},
		{EnvLogLevel, "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
