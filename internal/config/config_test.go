package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"intervue/internal/config"
)

func validConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Evaluation.Provider = "mock"
	cfg.Transcription.Mode = "mock"
	return cfg
}

func TestDefaultValidatesWithMockProviders(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRequiresAPIKeyForLiveProviders(t *testing.T) {
	for _, provider := range []string{"openrouter", "gemini"} {
		cfg := validConfig(t)
		cfg.Evaluation.Provider = provider
		cfg.Evaluation.APIKey = ""
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("expected error for provider %q without api key", provider)
		}
		if !strings.Contains(err.Error(), "evaluation.api_key") {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestValidateRejectsUnknownSelectors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Dispatch.Mode = "celery"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown dispatch mode")
	}

	cfg = validConfig(t)
	cfg.Evaluation.Provider = "openai"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown evaluation provider")
	}

	cfg = validConfig(t)
	cfg.Transcription.Mode = "aws"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown transcription mode")
	}
}

func TestValidateWorkflowBounds(t *testing.T) {
	cfg := validConfig(t)
	cfg.Workflow.MaxAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero max attempts")
	}

	cfg = validConfig(t)
	cfg.Workflow.RetryBaseSeconds = 900
	cfg.Workflow.RetryMaxSeconds = 60
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when base delay exceeds max delay")
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[evaluation]
provider = "Mock"

[transcription]
mode = "MOCK"

[dispatch]
mode = "Inline"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Dispatch.Mode != "inline" {
		t.Fatalf("expected normalized dispatch mode, got %q", cfg.Dispatch.Mode)
	}
	if cfg.Interview.MaxQuestions != 9 {
		t.Fatalf("expected default max questions, got %d", cfg.Interview.MaxQuestions)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	_, _, exists, err := config.Load(missing)
	// Defaults require an openrouter api key, so Load should fail validation,
	// not file resolution.
	if exists {
		t.Fatal("expected missing config to be reported as absent")
	}
	if err == nil || !strings.Contains(err.Error(), "evaluation.api_key") {
		t.Fatalf("expected api key validation error, got %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[evaluation]") {
		t.Fatal("sample config missing evaluation section")
	}
}
