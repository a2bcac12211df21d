package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ppiankov/claimcheck/internal/apperr"
)

func newTestAnthropic(t *testing.T, url string) *AnthropicProvider {
	t.Helper()
	provider, err := NewAnthropicProvider(Config{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "claude-3-5-sonnet-20241022",
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	return provider
}

func TestAnthropicProvider_Send_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key header test-key, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("Expected anthropic-version header 2023-06-01, got %s", r.Header.Get("anthropic-version"))
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.System == "" {
			t.Error("Expected system prompt to be sent")
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_123",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-3-5-sonnet-20241022",
			"stop_reason": "end_turn",
			"content":     []map[string]string{{"type": "text", "text": validClaimsJSON}},
			"usage":       map[string]int{"input_tokens": 50, "output_tokens": 50},
		})
	}))
	defer server.Close()

	provider := newTestAnthropic(t, server.URL)

	payload, err := provider.Send(context.Background(), testPrompt(t))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if payload.Content != validClaimsJSON {
		t.Errorf("Unexpected content: %s", payload.Content)
	}
	if payload.TokensUsed != 100 {
		t.Errorf("Unexpected token usage: %d", payload.TokensUsed)
	}
}

func TestAnthropicProvider_Send_APIError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   apperr.Kind
	}{
		{"overloaded", 529, apperr.KindUpstreamUnavailable},
		{"rate limit", http.StatusTooManyRequests, apperr.KindUpstreamRateLimit},
		{"bad key", http.StatusUnauthorized, apperr.KindUpstreamAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "api_error", "message": "nope"}}`))
			}))
			defer server.Close()

			provider := newTestAnthropic(t, server.URL)
			_, err := provider.Send(context.Background(), testPrompt(t))
			assertKind(t, err, tt.want)
		})
	}
}

func TestAnthropicProvider_Send_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{malformed json`))
	}))
	defer server.Close()

	provider := newTestAnthropic(t, server.URL)
	_, err := provider.Send(context.Background(), testPrompt(t))
	assertKind(t, err, apperr.KindMalformedResponse)
}

func TestAnthropicProvider_Send_Truncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"stop_reason": "max_tokens", "content": [{"type": "text", "text": "{\"claims\": ["}]}`))
	}))
	defer server.Close()

	provider := newTestAnthropic(t, server.URL)
	_, err := provider.Send(context.Background(), testPrompt(t))
	assertKind(t, err, apperr.KindMalformedResponse)
}

func TestAnthropicProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/models" && r.Header.Get("x-api-key") == "test-key" {
			_, _ = w.Write([]byte(`{"data": []}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	provider := newTestAnthropic(t, server.URL)
	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	if provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be false on error")
	}
}
