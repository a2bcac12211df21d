package llm

import (
	"testing"
	"time"

	"github.com/ppiankov/claimcheck/internal/model"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantName string
		wantErr  bool
	}{
		{"openai", Config{Provider: "openai", APIKey: "k"}, "openai", false},
		{"claude alias", Config{Provider: "Claude", APIKey: "k"}, "anthropic", false},
		{"ollama without key", Config{Provider: "ollama", Model: "llama3.1"}, "ollama", false},
		{"ollama without model", Config{Provider: "ollama"}, "", true},
		{"openai without key", Config{Provider: "openai"}, "", true},
		{"empty", Config{}, "", true},
		{"unknown", Config{Provider: "gemini", APIKey: "k"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got provider %v", p)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider failed: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("Expected provider %s, got %s", tt.wantName, p.Name())
			}
		})
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := ConfigFromModel(model.LLMConfig{
		Provider:     "openai",
		Model:        "gpt-4.1",
		APIKey:       "k",
		Timeout:      90 * time.Second,
		MaxTokens:    2000,
		Temperature:  0.2,
		StrictSchema: true,
	})

	if cfg.Timeout != 90 {
		t.Errorf("Expected timeout 90s, got %d", cfg.Timeout)
	}
	if !cfg.StrictSchema || cfg.MaxTokens != 2000 || cfg.Temperature != 0.2 {
		t.Errorf("Unexpected config: %+v", cfg)
	}
}

func TestRequiresAPIKey(t *testing.T) {
	if !RequiresAPIKey("openai") || !RequiresAPIKey("anthropic") {
		t.Error("Expected hosted providers to require a key")
	}
	if RequiresAPIKey("ollama") {
		t.Error("Expected ollama to run without a key")
	}
}
