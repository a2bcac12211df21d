// Package search attaches web sources to analysed claims.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/claimcheck/internal/extract"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/worker"
)

const (
	defaultBaseURL    = "https://api.tavily.com"
	defaultMaxResults = 3
	maxSnippetRunes   = 500
	queryPrefix       = "fact check: "
)

// Options tune a single search
type Options struct {
	MaxResults     int
	Depth          string   // basic or advanced
	IncludeDomains []string // Empty means model.TrustedFactCheckDomains
}

// Searcher finds sources for a claim
type Searcher interface {
	Search(ctx context.Context, claim string, opts Options) ([]model.Source, error)
}

// TavilyClient searches the Tavily API
type TavilyClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *worker.Limiter
}

type tavilyRequest struct {
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results"`
	SearchDepth    string   `json:"search_depth"`
	IncludeAnswer  bool     `json:"include_answer"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		URL           string  `json:"url"`
		Title         string  `json:"title"`
		Content       string  `json:"content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date"`
	} `json:"results"`
}

// NewTavilyClient creates a client; a nil httpClient gets a 15 second timeout
func NewTavilyClient(apiKey, baseURL string, httpClient *http.Client) (*TavilyClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Tavily API key is required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &TavilyClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// WithLimiter throttles requests to the API host
func (c *TavilyClient) WithLimiter(l *worker.Limiter) *TavilyClient {
	c.limiter = l
	return c
}

// Search looks up fact-checking sources for claim
func (c *TavilyClient) Search(ctx context.Context, claim string, opts Options) ([]model.Source, error) {
	claim = strings.TrimSpace(claim)
	if claim == "" {
		return nil, fmt.Errorf("empty claim")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.baseURL); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	body, err := json.Marshal(buildRequest(claim, opts))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("search API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var decoded tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	sources := make([]model.Source, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		if r.URL == "" {
			continue
		}
		sources = append(sources, model.Source{
			Title:       strings.TrimSpace(r.Title),
			URL:         r.URL,
			Snippet:     truncateRunes(extract.StripTags(r.Content), maxSnippetRunes),
			Score:       r.Score,
			PublishedAt: r.PublishedDate,
		})
	}
	return sources, nil
}

func buildRequest(claim string, opts Options) tavilyRequest {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	depth := opts.Depth
	if depth != "advanced" {
		depth = "basic"
	}
	domains := opts.IncludeDomains
	if len(domains) == 0 {
		domains = model.TrustedFactCheckDomains
	}
	return tavilyRequest{
		Query:          queryPrefix + claim,
		MaxResults:     maxResults,
		SearchDepth:    depth,
		IncludeDomains: domains,
	}
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
