package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/escolario/internal/filex"
)

// Config holds runtime settings.
type Config struct {
	// DatabasePath is the SQLite file (":memory:" for a throwaway store).
	DatabasePath string
	// Workers is the size of the background worker pool.
	Workers   int
	LogLevel  string
	LogFormat string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() error {
	home, err := filex.DataHome()
	if err != nil {
		return err
	}
	c.DatabasePath = filepath.Join(home, "escolario", "escolario.db")
	c.Workers = 2
	c.LogLevel = "warn"
	c.LogFormat = "text"
	return nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database path is empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// Load builds a Config from defaults, the JSON file and the environment,
// then applies the flags of fs that were set on the command line.
func Load(fs FlagSet, f *Flags) (*Config, error) {
	cfg := &Config{}
	if err := cfg.LoadDefaults(); err != nil {
		return nil, err
	}
	if err := parseJSON(f.ConfigFile, cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(f.EnvFile, cfg); err != nil {
		return nil, err
	}
	f.apply(fs, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
