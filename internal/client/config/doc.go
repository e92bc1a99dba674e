// Package config loads runtime configuration for the AudioScribe CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given with -c or --config.
//  3. Command-line flags of the root command, which override earlier values.
//
// # JSON schema
//
// Durations can be strings like "30s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:5000",
//	  "session_dir": ".audioscribe",
//	  "session_check_interval": "30s",
//	  "request_timeout": "5m"
//	}
package config
