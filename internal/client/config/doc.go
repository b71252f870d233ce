// Package config loads runtime configuration for the inspection CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected via flags: -c or -config.
//  3. MANHOLE_* environment variables.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-d string   inspection database file
//	-l string   log level
//	-f string   log format
//
// # File schema
//
//	{
//	  "database_path": "/var/lib/manhole/manhole.db",
//	  "log_level": "info",
//	  "log_format": "json"
//	}
//
// Environment variables: MANHOLE_DB_PATH, MANHOLE_LOG_LEVEL, MANHOLE_LOG_FORMAT.
package config
