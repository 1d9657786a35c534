package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	EnvDatabase  = "ESCOLARIO_DB"
	EnvWorkers   = "ESCOLARIO_WORKERS"
	EnvLogLevel  = "ESCOLARIO_LOG_LEVEL"
	EnvLogFormat = "ESCOLARIO_LOG_FORMAT"
)

// parseEnv loads envFile (when it exists) into the process environment
// without overriding variables that are already set, then overlays cfg.
func parseEnv(envFile string, cfg *Config) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if v, ok := os.LookupEnv(EnvDatabase); ok && v != "" {
		cfg.DatabasePath = v
	}
	if v, ok := os.LookupEnv(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		cfg.Workers = n
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok && v != "" {
		cfg.LogFormat = v
	}
	return nil
}
