// Package objectstore provides keyed document and blob storage for session
// artifacts: question mappings, answer audio, interview logs, and feedback.
package objectstore
