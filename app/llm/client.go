package llm

import (
	"context"
	"fmt"
	"time"
)

const (
	ProviderGrok      = "grok"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

const (
	temperature = 0.7
	maxTokens   = 4000
)

// Client completes a system + user prompt pair into free text.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
}

type Config struct {
	Provider  string
	APIKey    string
	APIURL    string
	Model     string
	UserAgent string
	Timeout   time.Duration
}

// ConfigurationError reports a provider that cannot be constructed from the
// given settings.
type ConfigurationError struct {
	Provider string
	Setting  string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s generator is not configured: %s %s", e.Provider, e.Setting, e.Reason)
}

func New(ctx context.Context, cfg Config) (Client, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = ProviderGrok
	}

	if cfg.APIKey == "" {
		return nil, &ConfigurationError{Provider: provider, Setting: "LLM_API_KEY", Reason: "is not set"}
	}

	switch provider {
	case ProviderGrok:
		return NewGrokClient(cfg.APIKey, cfg.APIURL, cfg.Model, cfg.UserAgent, cfg.Timeout), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.APIURL, cfg.Model), nil
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, cfg.APIURL, cfg.Model), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, &ConfigurationError{Provider: provider, Setting: "LLM_PROVIDER", Reason: "is not supported"}
	}
}
