// Package config loads runtime configuration for the Escolario client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with --config.
//  3. Environment variables, after loading an optional .env file:
//     ESCOLARIO_DB, ESCOLARIO_WORKERS, ESCOLARIO_LOG_LEVEL, ESCOLARIO_LOG_FORMAT.
//  4. Command-line flags that were set explicitly.
//
// # JSON schema
//
//	{
//	  "database_path": "/home/ana/.local/share/escolario/escolario.db",
//	  "workers": 4,
//	  "log_level": "info",
//	  "log_format": "json"
//	}
package config
