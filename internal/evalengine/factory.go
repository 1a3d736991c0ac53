package evalengine

import (
	"context"
	"fmt"

	"intervue/internal/config"
	"intervue/internal/services"
)

// FromConfig constructs the engine named by the evaluation configuration.
// The choice is made once at startup; callers hold only the Engine interface.
func FromConfig(ctx context.Context, cfg *config.Config) (Engine, error) {
	switch cfg.Evaluation.Provider {
	case "openrouter":
		return NewOpenRouter(OpenRouterConfig{
			APIKey:         cfg.Evaluation.APIKey,
			BaseURL:        cfg.Evaluation.BaseURL,
			Model:          cfg.Evaluation.Model,
			TimeoutSeconds: cfg.Evaluation.TimeoutSeconds,
		}), nil
	case "gemini":
		return NewGemini(ctx, GeminiConfig{
			APIKey: cfg.Evaluation.APIKey,
			Model:  cfg.Evaluation.Model,
		})
	case "mock":
		return NewMock(), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "evalengine", "from_config",
			fmt.Sprintf("unknown evaluation provider %q", cfg.Evaluation.Provider), nil)
	}
}
