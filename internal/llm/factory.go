package llm

import (
	"fmt"
	"strings"
	"time"
)

// FactoryConfig selects and configures a provider. It mirrors the llm config
// section so this package does not import config.
type FactoryConfig struct {
	// Provider is "openai" or "anthropic", case-insensitive.
	Provider    string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	OpenAI      OpenAIConfig
	Anthropic   AnthropicConfig
}

// NewCompleter builds the selected provider. A provider without an API key
// yields ErrNotConfigured so callers can switch AI features off instead of
// failing.
func NewCompleter(cfg FactoryConfig) (Completer, error) {
	name := strings.ToLower(cfg.Provider)

	var key string
	var build func() Completer
	switch name {
	case "openai":
		key = cfg.OpenAI.APIKey
		build = func() Completer {
			return NewOpenAIProvider(cfg.OpenAI, cfg.Temperature, cfg.Timeout, cfg.MaxRetries)
		}
	case "anthropic":
		key = cfg.Anthropic.APIKey
		build = func() Completer {
			return NewAnthropicProvider(cfg.Anthropic, cfg.Temperature, cfg.Timeout, cfg.MaxRetries)
		}
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}

	if key == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrNotConfigured)
	}
	return build(), nil
}
