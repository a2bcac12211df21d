package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/claimcheck/internal/apperr"
)

func TestOllamaProvider_Send_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}

		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if !strings.Contains(string(req.Format), `"claims"`) {
			t.Errorf("Expected schema in format field, got %s", req.Format)
		}
		if req.Stream {
			t.Error("Expected non-streaming request")
		}

		resp := ollamaResponse{
			Model:           "llama3.1",
			Response:        validClaimsJSON,
			Done:            true,
			PromptEvalCount: 10,
			EvalCount:       20,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	payload, err := provider.Send(context.Background(), testPrompt(t))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if payload.Content != validClaimsJSON {
		t.Errorf("Unexpected content: %s", payload.Content)
	}
	if payload.TokensUsed != 30 {
		t.Errorf("Unexpected token usage: %d", payload.TokensUsed)
	}
}

func TestOllamaProvider_Send_APIError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   apperr.Kind
	}{
		{"rate limit", http.StatusTooManyRequests, `{"error": "too many requests"}`, apperr.KindUpstreamRateLimit},
		{"unauthorized", http.StatusUnauthorized, `{"error": "unauthorized"}`, apperr.KindUpstreamAuth},
		{"forbidden", http.StatusForbidden, `{"error": "forbidden"}`, apperr.KindUpstreamAuth},
		{"server error", http.StatusInternalServerError, `{"error": "Internal Server Error"}`, apperr.KindUpstreamUnavailable},
		{"bad gateway", http.StatusBadGateway, `upstream down`, apperr.KindUpstreamUnavailable},
		{"unavailable", http.StatusServiceUnavailable, `{"error": "model is loading"}`, apperr.KindUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1", Timeout: 5})
			if err != nil {
				t.Fatalf("Failed to create provider: %v", err)
			}

			_, err = provider.Send(context.Background(), testPrompt(t))
			assertKind(t, err, tt.want)
		})
	}
}

func TestOllamaProvider_Send_ErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "Internal Server Error"}`))
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Send(context.Background(), testPrompt(t))
	if err == nil || !strings.Contains(err.Error(), "Internal Server Error") {
		t.Errorf("Expected error message to contain 'Internal Server Error', got %v", err)
	}
}

func TestOllamaProvider_Send_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{malformed json`))
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Send(context.Background(), testPrompt(t))
	assertKind(t, err, apperr.KindMalformedResponse)
}

func TestOllamaProvider_Send_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: url, Model: "llama3.1", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Send(context.Background(), testPrompt(t))
	assertKind(t, err, apperr.KindUpstreamUnavailable)
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be false on error")
	}
}

func TestNewOllamaProvider_RequiresModel(t *testing.T) {
	provider, err := NewOllamaProvider(Config{BaseURL: "http://localhost:11434"})
	if err == nil {
		t.Fatalf("Expected error when no model provided, got provider %v", provider)
	}
	if !errors.Is(err, ErrModelRequired) {
		t.Errorf("Expected ErrModelRequired, got %v", err)
	}
	if !strings.Contains(err.Error(), "ollama model must be specified") {
		t.Errorf("Expected error about missing model, got %v", err)
	}
}
