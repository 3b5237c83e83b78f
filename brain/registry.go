// Package brain implements the Brain/Mind orchestrator (C8): the entry
// point that normalizes a caller's query into an Input, ensures a code
// interpreter is present, and delegates to the Moderator worker,
// returning a terminal AgentResponse plus cost.
package brain

import (
	"context"
	"fmt"

	"github.com/kadirpekel/minion/config"
	"github.com/kadirpekel/minion/llms"
)

// ModelRegistry maps a model alias to a constructed llms.Provider, per
// spec.md §4.8 ("The model registry is a mapping from model alias →
// provider descriptor"). It wraps llms.Registry rather than duplicating
// its bookkeeping; BuildModelRegistry takes a models map (such as
// config.Config.Models) and constructs one provider per entry using the
// vendor constructor the alias's api_type names.
type ModelRegistry struct {
	*llms.Registry
}

// NewModelRegistry builds an empty registry.
func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{Registry: llms.NewRegistry()}
}

// BuildModelRegistry constructs a provider for every entry of models and
// registers it under its alias. Unknown api_types are rejected rather
// than silently defaulted, since a misconfigured alias should fail at
// startup, not at first use.
func BuildModelRegistry(ctx context.Context, models map[string]config.LLMProviderConfig) (*ModelRegistry, error) {
	reg := NewModelRegistry()
	for alias, mc := range models {
		p, err := newProvider(ctx, mc)
		if err != nil {
			return nil, fmt.Errorf("brain: building provider %q: %w", alias, err)
		}
		if err := reg.RegisterProvider(alias, p); err != nil {
			return nil, fmt.Errorf("brain: registering provider %q: %w", alias, err)
		}
	}
	return reg, nil
}

func newProvider(ctx context.Context, mc config.LLMProviderConfig) (llms.Provider, error) {
	mc.SetDefaults()
	switch mc.APIType {
	case "openai":
		p := llms.NewOpenAIProvider(mc.APIKey, mc.Model).WithHost(mc.Host).WithTemperature(mc.Temperature)
		return p, nil
	case "anthropic":
		p := llms.NewAnthropicProvider(mc.APIKey, mc.Model).
			WithHost(mc.Host).
			WithTemperature(mc.Temperature).
			WithMaxTokens(mc.MaxTokens)
		return p, nil
	case "gemini":
		return llms.NewGeminiProvider(ctx, mc.APIKey, mc.Model)
	case "ollama":
		p := llms.NewOpenAIProvider(mc.APIKey, mc.Model).WithHost(mc.Host).WithTemperature(mc.Temperature)
		return p, nil
	case "mock":
		return llms.NewMockProvider(mc.Model), nil
	default:
		return nil, fmt.Errorf("unknown api_type %q", mc.APIType)
	}
}

// Default looks up the alias conventionally named "default".
func (r *ModelRegistry) Default() (llms.Provider, error) {
	return r.GetProvider("default")
}
