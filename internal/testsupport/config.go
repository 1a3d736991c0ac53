// Package testsupport provides shared fixtures for package tests: configs
// seeded with unique temp directories and store openers with registered
// cleanup.
package testsupport

import (
	"path/filepath"
	"testing"

	"intervue/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Providers default to the mock implementations so no test reaches a network
// or external binary.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Evaluation.Provider = "mock"
	cfg.Evaluation.APIKey = ""
	cfg.Transcription.Mode = "mock"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate test config: %v", err)
	}
	return &cfg
}

// WithDispatchMode overrides the dispatch mode on the test config.
func WithDispatchMode(mode string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Dispatch.Mode = mode
	}
}

// WithMaxQuestions overrides the generated question count on the test config.
func WithMaxQuestions(count int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Interview.MaxQuestions = count
	}
}

// WithMaxAttempts overrides the job retry budget on the test config.
func WithMaxAttempts(attempts int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.MaxAttempts = attempts
	}
}
