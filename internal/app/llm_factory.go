package app

import (
	"context"
	"fmt"

	"github.com/xpanvictor/aria/internal/config"
	"github.com/xpanvictor/aria/pkg/Logger"
	"github.com/xpanvictor/aria/pkg/assistant"
	"github.com/xpanvictor/aria/pkg/assistant/providers/gemini"
	"github.com/xpanvictor/aria/pkg/assistant/providers/ollama"
	"github.com/xpanvictor/aria/pkg/assistant/router"
)

// LLMRouterFactory builds the provider fallback chain from settings.
type LLMRouterFactory struct {
	config config.LLMConfig
	logger *Logger.Logger
}

func NewLLMRouterFactory(cfg config.LLMConfig, logger *Logger.Logger) *LLMRouterFactory {
	return &LLMRouterFactory{config: cfg, logger: logger}
}

// CreateRouter builds a Mux over the configured providers, in order.
func (f *LLMRouterFactory) CreateRouter(ctx context.Context) (*router.Mux, error) {
	var providers []assistant.Provider

	for _, name := range f.config.Providers {
		p, err := f.createProvider(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s provider: %w", name, err)
		}
		providers = append(providers, p)
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no LLM providers configured")
	}

	mux := router.New(providers, f.logger)
	f.logger.Infof("LLM router created with %d provider(s): %v", len(providers), mux.Providers())
	return mux, nil
}

func (f *LLMRouterFactory) createProvider(ctx context.Context, name string) (assistant.Provider, error) {
	switch name {
	case "openai":
		if f.config.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("api key not configured")
		}
		return assistant.NewOpenAICompat(assistant.OpenAICompatConfig{
			APIKey:      f.config.OpenAI.APIKey,
			BaseURL:     f.config.OpenAI.BaseURL,
			Model:       f.config.OpenAI.Model,
			Temperature: f.config.OpenAI.Temperature,
			MaxTokens:   f.config.OpenAI.MaxTokens,
			TopP:        f.config.OpenAI.TopP,
		}), nil
	case "ollama":
		if len(f.config.Ollama.URLs) == 0 {
			return nil, fmt.Errorf("no server urls configured")
		}
		return ollama.New(ollama.Config{
			URLs:  f.config.Ollama.URLs,
			Model: f.config.Ollama.Model,
		}, f.logger), nil
	case "gemini":
		return gemini.New(ctx, gemini.Config{
			APIKey: f.config.Gemini.APIKey,
			Model:  f.config.Gemini.Model,
		})
	}
	return nil, fmt.Errorf("unknown provider %q", name)
}
