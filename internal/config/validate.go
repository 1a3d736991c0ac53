package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateInterview(); err != nil {
		return err
	}
	if err := c.validateEvaluation(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateDispatch(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateInterview() error {
	if c.Interview.MaxQuestions < 1 {
		return errors.New("interview.max_questions must be at least 1")
	}
	if c.Interview.UploadConcurrency < 1 {
		return errors.New("interview.upload_concurrency must be at least 1")
	}
	return nil
}

func (c *Config) validateEvaluation() error {
	switch c.Evaluation.Provider {
	case "openrouter", "gemini":
		if strings.TrimSpace(c.Evaluation.APIKey) == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/intervue/config.toml"
			}
			return fmt.Errorf("evaluation.api_key is required for provider %q. Edit %s (create with 'intervue config init')", c.Evaluation.Provider, defaultPath)
		}
	case "mock":
	default:
		return fmt.Errorf("evaluation.provider must be one of openrouter, gemini, mock (got %q)", c.Evaluation.Provider)
	}
	if c.Evaluation.TimeoutSeconds < 0 {
		return errors.New("evaluation.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Mode {
	case "whisperx":
		if strings.TrimSpace(c.Transcription.Binary) == "" {
			return errors.New("transcription.binary must be set when transcription.mode is whisperx")
		}
	case "mock":
	default:
		return fmt.Errorf("transcription.mode must be one of whisperx, mock (got %q)", c.Transcription.Mode)
	}
	return nil
}

func (c *Config) validateDispatch() error {
	switch c.Dispatch.Mode {
	case "queue", "inline":
		return nil
	default:
		return fmt.Errorf("dispatch.mode must be one of queue, inline (got %q)", c.Dispatch.Mode)
	}
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.PollInterval < 1 {
		return errors.New("workflow.poll_interval must be at least 1 second")
	}
	if c.Workflow.ErrorRetryInterval < 1 {
		return errors.New("workflow.error_retry_interval must be at least 1 second")
	}
	if c.Workflow.MaxAttempts < 1 {
		return errors.New("workflow.max_attempts must be at least 1")
	}
	if c.Workflow.RetryBaseSeconds < 0 || c.Workflow.RetryMaxSeconds < 0 {
		return errors.New("workflow retry delays must not be negative")
	}
	if c.Workflow.RetryMaxSeconds > 0 && c.Workflow.RetryBaseSeconds > c.Workflow.RetryMaxSeconds {
		return errors.New("workflow.retry_base_seconds must not exceed workflow.retry_max_seconds")
	}
	if c.Workflow.LeaseSeconds < 1 {
		return errors.New("workflow.lease_seconds must be at least 1")
	}
	return nil
}
