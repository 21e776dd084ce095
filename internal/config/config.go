// Package config resolves pasco settings from defaults, an optional
// dotenv file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/illarion/pasco/internal/attempts"
	"github.com/illarion/pasco/internal/crypto"
	"github.com/illarion/pasco/internal/storage"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Environment variables
const (
	EnvConfig      = "PASCO_CONFIG"
	EnvHome        = "PASCO_HOME"
	EnvIterations  = "PASCO_ITERATIONS"
	EnvMaxAttempts = "PASCO_MAX_ATTEMPTS"
	EnvLogLevel    = "PASCO_LOG_LEVEL"
)

const appDir = "pasco"

// Config holds resolved settings
type Config struct {
	Home        string // state directory
	Iterations  int
	MaxAttempts int
	LogLevel    zerolog.Level
}

// DatabasePath is the attempt database inside Home.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Home, storage.FileName)
}

func defaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, appDir), nil
}

// Load resolves the configuration. The dotenv file named by PASCO_CONFIG, or
// config.env in the user config directory, is read when present; its values
// never override variables already set in the environment.
func Load() (*Config, error) {
	base, err := defaultDir()
	if err != nil {
		return nil, err
	}

	file := os.Getenv(EnvConfig)
	explicit := file != ""
	if !explicit {
		file = filepath.Join(base, "config.env")
	}
	if err := godotenv.Load(file); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg := &Config{
		Home:        base,
		Iterations:  crypto.DefaultIterations,
		MaxAttempts: attempts.DefaultMaxAttempts,
		LogLevel:    zerolog.WarnLevel,
	}

	if home := os.Getenv(EnvHome); home != "" {
		cfg.Home = home
	}

	if v := os.Getenv(EnvIterations); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvIterations, v, err)
		}
		cfg.Iterations = crypto.ClampIterations(n)
	}

	if v := os.Getenv(EnvMaxAttempts); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid %s %q: must be a positive integer", EnvMaxAttempts, v)
		}
		cfg.MaxAttempts = n
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		level, err := zerolog.ParseLevel(strings.ToLower(v))
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvLogLevel, v, err)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}
