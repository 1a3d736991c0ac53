// Package logging wraps log/slog construction and the structured field
// conventions shared across the daemon and CLI.
package logging
