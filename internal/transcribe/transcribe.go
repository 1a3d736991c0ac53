// Package transcribe converts stored answer audio into plain text. The
// whisperx backend shells out to the WhisperX CLI; the mock backend returns
// a fixed transcript for development and tests.
package transcribe

import (
	"context"
	"fmt"

	"intervue/internal/config"
	"intervue/internal/objectstore"
	"intervue/internal/services"
)

// Transcriber resolves a stored audio reference to its transcript text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioRef string) (string, error)
}

// FromConfig constructs the transcriber named by the transcription
// configuration.
func FromConfig(cfg *config.Config, objects objectstore.Store) (Transcriber, error) {
	switch cfg.Transcription.Mode {
	case "whisperx":
		return NewWhisperX(WhisperXConfig{
			Binary: cfg.Transcription.Binary,
			Model:  cfg.Transcription.Model,
		}, objects), nil
	case "mock":
		return NewMock(), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "from_config",
			fmt.Sprintf("unknown transcription mode %q", cfg.Transcription.Mode), nil)
	}
}
