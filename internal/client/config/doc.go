// Package config loads runtime configuration for the gatekeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. GATEKEEPER_* environment variables.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-s string   base URL of the gatekeeper HTTP API
//	-t int      per-request timeout (seconds)
//
// # JSON schema
//
// Durations accept strings like "10s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "request_timeout": "10s"
//	}
package config
