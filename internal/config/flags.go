package config

import (
	"github.com/spf13/pflag"
)

// FlagSet is the part of *pflag.FlagSet used after parsing.
type FlagSet interface {
	Changed(name string) bool
}

// Flags holds the values bound to command-line flags.
type Flags struct {
	ConfigFile   string
	EnvFile      string
	DatabasePath string
	Workers      int
	LogLevel     string
	LogFormat    string
}

// Register binds the flags to fs.
//
//	-c, --config string      JSON config file
//	    --env-file string    dotenv file (default ".env")
//	    --db string          SQLite database path
//	-w, --workers int        background workers
//	    --log-level string   debug, info, warn or error
//	    --log-format string  text or json
func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.ConfigFile, "config", "c", "", "path to JSON config file")
	fs.StringVar(&f.EnvFile, "env-file", ".env", "path to dotenv file")
	fs.StringVar(&f.DatabasePath, "db", "", "path to the SQLite database")
	fs.IntVarP(&f.Workers, "workers", "w", 0, "number of background workers")
	fs.StringVar(&f.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.LogFormat, "log-format", "", "log format: text, json")
}

// apply copies the flags the user actually passed into cfg.
func (f *Flags) apply(fs FlagSet, cfg *Config) {
	if fs == nil {
		return
	}
	if fs.Changed("db") {
		cfg.DatabasePath = f.DatabasePath
	}
	if fs.Changed("workers") {
		cfg.Workers = f.Workers
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.LogLevel
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = f.LogFormat
	}
}
