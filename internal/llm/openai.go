package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/ppiankov/claimcheck/internal/apperr"
	"github.com/ppiankov/claimcheck/internal/prompt"
	"github.com/ppiankov/claimcheck/internal/util"
	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4.1"

// OpenAIProvider implements the Provider interface for OpenAI models
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// Send requests a chat completion constrained to the prompt's JSON schema
func (p *OpenAIProvider) Send(ctx context.Context, pr prompt.Prompt) (*Payload, error) {
	model := p.config.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.config.timeout(defaultTimeout))
	defer cancel()

	schema := pr.Schema
	name := pr.SchemaName
	if name == "" {
		name = prompt.SchemaName
	}

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: pr.System},
			{Role: openai.ChatMessageRoleUser, Content: pr.User},
		},
		MaxTokens:   p.config.maxTokens(),
		Temperature: p.config.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: &schema,
				Strict: p.config.StrictSchema,
			},
		},
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, apperr.MalformedResponse("no choices in OpenAI response", nil)
	}

	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return nil, apperr.MalformedResponse("OpenAI refused the request", errors.New(msg.Refusal))
	}

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return nil, apperr.MalformedResponse("empty content in OpenAI response", nil)
	}

	respModel := resp.Model
	if respModel == "" {
		respModel = model
	}

	return &Payload{
		Content:    content,
		Model:      respModel,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// classifyOpenAIError maps go-openai errors onto apperr kinds
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return apperr.FromHTTPStatus("openai", apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return apperr.FromHTTPStatus("openai", reqErr.HTTPStatusCode, err)
	}

	return classifyTransportError("openai", err)
}
