// Package main hosts the intervue CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into session
// lifecycle operations, answer uploads, evaluation hand-offs, queue
// maintenance, and configuration scaffolding. It centralizes configuration
// resolution and service assembly so subcommands can focus on user
// experience instead of wiring.
//
// Commands share the daemon's SQLite databases and object store directly, so
// queued work lands where a running intervued instance will pick it up.
package main
