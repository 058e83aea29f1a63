package llm

import (
	"context"
	"fmt"

	"dinner-aide/internal/config"
	"dinner-aide/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// New builds the generator selected by cfg.LLMProvider. Every provider is asked
// for JSON output.
func New(ctx context.Context, cfg *config.Config, temperature float32) (TextGenerator, error) {
	switch cfg.LLMProvider {
	case config.ProviderGroq, config.ProviderOpenAI:
		return NewChatClient(ChatOptions{
			Provider:    cfg.LLMProvider,
			APIKey:      cfg.LLMAPIKey,
			BaseURL:     cfg.LLMBaseURL,
			Model:       cfg.LLMModel,
			Temperature: temperature,
			Timeout:     cfg.LLMTimeout(),
		}), nil
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, temperature)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}

// Close releases gen if it holds resources.
func Close(gen TextGenerator) error {
	if c, ok := gen.(Closer); ok {
		return c.Close()
	}
	return nil
}
