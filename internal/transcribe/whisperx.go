package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"intervue/internal/objectstore"
	"intervue/internal/services"
)

const defaultWhisperXModel = "large-v3-turbo"

// WhisperXConfig captures the runtime settings for the WhisperX CLI.
type WhisperXConfig struct {
	Binary string
	Model  string
}

// WhisperX transcribes stored audio by staging it to a temporary file and
// running the WhisperX CLI against it.
type WhisperX struct {
	cfg           WhisperXConfig
	objects       objectstore.Store
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewWhisperX constructs a WhisperX-backed transcriber.
func NewWhisperX(cfg WhisperXConfig, objects objectstore.Store) *WhisperX {
	if cfg.Binary == "" {
		cfg.Binary = "whisperx"
	}
	if cfg.Model == "" {
		cfg.Model = defaultWhisperXModel
	}
	return &WhisperX{cfg: cfg, objects: objects}
}

// WithCommandRunner sets a custom command runner (for testing).
func (w *WhisperX) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	w.commandRunner = runner
}

// Transcribe resolves audioRef to a temporary file, runs WhisperX over it,
// and returns the concatenated segment text.
func (w *WhisperX) Transcribe(ctx context.Context, audioRef string) (string, error) {
	audio, err := w.objects.GetBlob(ctx, audioRef)
	if err != nil {
		return "", err
	}

	workDir, err := os.MkdirTemp("", "transcribe-*")
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "transcribe", "stage_audio", "create work dir", err)
	}
	defer os.RemoveAll(workDir)

	source := filepath.Join(workDir, "answer.audio")
	if err := os.WriteFile(source, audio, 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, "transcribe", "stage_audio", "write audio file", err)
	}

	args := w.buildArgs(source, workDir)
	if err := w.run(ctx, w.cfg.Binary, args...); err != nil {
		return "", services.Wrap(services.ErrTransient, "transcribe", "run_whisperx", "transcription command failed", err)
	}

	jsonPath := filepath.Join(workDir, "answer.json")
	text, err := loadTranscriptText(jsonPath)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "transcribe", "read_output", "load transcript", err)
	}
	return text, nil
}

func (w *WhisperX) buildArgs(source, outputDir string) []string {
	return []string{
		source,
		"--model", w.cfg.Model,
		"--output_dir", outputDir,
		"--output_format", "json",
	}
}

func (w *WhisperX) run(ctx context.Context, name string, args ...string) error {
	if w.commandRunner != nil {
		return w.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

type transcriptSegment struct {
	Text string `json:"text"`
}

type transcriptPayload struct {
	Segments []transcriptSegment `json:"segments"`
}

func loadTranscriptText(jsonPath string) (string, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", err
	}
	var payload transcriptPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("parse whisperx json: %w", err)
	}
	var parts []string
	for _, seg := range payload.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
