package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/inboxcook/internal/config"
)

// Completer produces a completion for a system prompt and a user message.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	// Name identifies the provider in logs and metrics.
	Name() string
}

// Sampling holds the generation parameters sent with every request.
type Sampling struct {
	Temperature float64
	TopP        float64
	TopK        int
	MaxTokens   int
}

// SamplingFromConfig extracts the sampling parameters.
func SamplingFromConfig(cfg *config.Config) Sampling {
	return Sampling{
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
		TopK:        cfg.TopK,
		MaxTokens:   cfg.MaxTokens,
	}
}

// NewCompleter builds the Completer selected by cfg.LLMProvider.
func NewCompleter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Completer, error) {
	sampling := SamplingFromConfig(cfg)

	switch cfg.LLMProvider {
	case config.ProviderBedrock:
		return NewBedrock(ctx, BedrockConfig{
			ModelID:  cfg.BedrockModelID,
			Region:   cfg.BedrockRegion,
			Sampling: sampling,
			Logger:   logger,
		})
	case config.ProviderOpenAI:
		return NewOpenAI(OpenAIConfig{
			APIKey:   cfg.OpenAIAPIKey,
			Model:    cfg.OpenAIModel,
			Sampling: sampling,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.LLMProvider)
	}
}
