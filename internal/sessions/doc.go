// Package sessions persists interview session rows in SQLite and owns the
// session lifecycle: creation, lookups, and the idempotent terminal
// writeback of processing outcomes.
package sessions
