// Package config loads runtime configuration for the vehiclefeed admin CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the vehiclefeed API
//	-t int      request timeout (seconds)
//	-u string   login name to prefill
//	-e string   export directory
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "request_timeout": "30s",
//	  "username": "admin",
//	  "export_dir": "exports"
//	}
package config
