package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/mathibot/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with candidate, retry and logging
// middleware.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *zap.Logger) (Provider, error) {
	var base Provider
	var explicit string
	var err error

	switch cfg.Provider {
	case "anthropic":
		var p *AnthropicProvider
		p, err = NewAnthropicProvider(cfg.Anthropic)
		base, explicit = p, cfg.Anthropic.Model
	case "openai":
		var p *OpenAIProvider
		p, err = NewOpenAIProvider(cfg.OpenAI)
		base, explicit = p, cfg.OpenAI.Model
	case "gemini":
		var p *GeminiProvider
		p, err = NewGeminiProvider(ctx, cfg.Gemini)
		base, explicit = p, cfg.Gemini.Model
	case "openrouter":
		var p *OpenRouterProvider
		p, err = NewOpenRouterProvider(cfg.OpenRouter)
		base, explicit = p, cfg.OpenRouter.Model
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller → candidates → retry → logging → base
	logged := WithLogging(base, cfg.Provider, eventRepo, logger)
	retried := WithRetry(logged, cfg.Retry)
	models := ModelCandidates(cfg, resolveExplicit(cfg.Provider, explicit))

	return WithCandidates(retried, models, logger), nil
}

// NewProviderFromEnv builds a provider from MATHIBOT_* variables, falling
// back to the standard vendor API key variables when the selected provider
// has no key.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo, logger *zap.Logger) (Provider, Config, error) {
	cfg := ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		discovered, ok := DiscoverConfig()
		if !ok {
			return nil, cfg, err
		}
		discovered.Models = cfg.Models
		discovered.ModelFallbacks = cfg.ModelFallbacks
		discovered.Timeout = cfg.Timeout
		cfg = discovered
	}
	p, err := NewProvider(ctx, cfg, eventRepo, logger)
	return p, cfg, err
}

func resolveExplicit(provider, model string) string {
	switch provider {
	case "anthropic":
		return resolveModel(model, anthropicModels)
	case "openai":
		return resolveModel(model, openaiModels)
	case "gemini":
		return resolveModel(model, geminiModels)
	}
	return model
}
