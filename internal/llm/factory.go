package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(strings.TrimSpace(config.Provider))

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, fmt.Errorf("no LLM provider configured (supported: openai, anthropic, ollama)")

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:     modelConfig.Provider,
		Model:        modelConfig.Model,
		APIKey:       modelConfig.APIKey,
		BaseURL:      modelConfig.BaseURL,
		Timeout:      int(modelConfig.Timeout.Seconds()),
		MaxTokens:    modelConfig.MaxTokens,
		Temperature:  modelConfig.Temperature,
		StrictSchema: modelConfig.StrictSchema,
		HTTPProxy:    modelConfig.HTTPProxy,
		HTTPSProxy:   modelConfig.HTTPSProxy,
		NoProxy:      modelConfig.NoProxy,
	}
}

// RequiresAPIKey reports whether the named provider needs a key to start
func RequiresAPIKey(provider string) bool {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai", "anthropic", "claude":
		return true
	default:
		return false
	}
}
