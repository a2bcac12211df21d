package llm

import (
	"context"
	"time"

	"github.com/ppiankov/claimcheck/internal/prompt"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Send submits the prompt once and returns the raw structured reply.
	// Errors are classified with apperr kinds; nothing is retried.
	Send(ctx context.Context, p prompt.Prompt) (*Payload, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Payload is the provider's reply before parsing
type Payload struct {
	// Content is the JSON text returned by the model
	Content string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic, injected once at startup
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float32

	// StrictSchema asks OpenAI for strict structured output
	StrictSchema bool

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "openai",
		Model:       "",
		Timeout:     60,
		MaxTokens:   4000,
		Temperature: 0.1,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout <= 0 {
		return fallback
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return 4000
	}
	return c.MaxTokens
}

const defaultTimeout = 60 * time.Second
