package config

const (
	defaultDataDir               = "~/.local/share/intervue/data"
	defaultLogDir                = "~/.local/share/intervue/logs"
	defaultMaxQuestions          = 9
	defaultUploadConcurrency     = 10
	defaultEvaluationProvider    = "openrouter"
	defaultEvaluationBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultEvaluationModel       = "google/gemini-3-flash-preview"
	defaultEvaluationTimeout     = 60
	defaultTranscriptionMode     = "whisperx"
	defaultTranscriptionBinary   = "whisperx"
	defaultTranscriptionModel    = "large-v3-turbo"
	defaultNotifyRequestTimeout  = 10
	defaultDispatchMode          = "queue"
	defaultWorkflowPollInterval  = 5
	defaultWorkflowErrorInterval = 10
	defaultWorkflowMaxAttempts   = 3
	defaultWorkflowRetryBase     = 30
	defaultWorkflowRetryMax      = 600
	defaultWorkflowLeaseSeconds  = 900
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Interview: Interview{
			MaxQuestions:      defaultMaxQuestions,
			UploadConcurrency: defaultUploadConcurrency,
		},
		Evaluation: Evaluation{
			Provider:       defaultEvaluationProvider,
			BaseURL:        defaultEvaluationBaseURL,
			Model:          defaultEvaluationModel,
			TimeoutSeconds: defaultEvaluationTimeout,
		},
		Transcription: Transcription{
			Mode:   defaultTranscriptionMode,
			Binary: defaultTranscriptionBinary,
			Model:  defaultTranscriptionModel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Completion:     true,
			Errors:         true,
		},
		Dispatch: Dispatch{
			Mode: defaultDispatchMode,
		},
		Workflow: Workflow{
			PollInterval:       defaultWorkflowPollInterval,
			ErrorRetryInterval: defaultWorkflowErrorInterval,
			MaxAttempts:        defaultWorkflowMaxAttempts,
			RetryBaseSeconds:   defaultWorkflowRetryBase,
			RetryMaxSeconds:    defaultWorkflowRetryMax,
			LeaseSeconds:       defaultWorkflowLeaseSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
