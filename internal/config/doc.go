// Package config loads, validates, and normalizes the TOML configuration
// shared by the CLI and the worker daemon.
package config
