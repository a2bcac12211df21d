package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimcheck/internal/cache"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/validate"
)

type stubSearcher struct {
	mu      sync.Mutex
	calls   map[string]int
	results map[string][]model.Source
	fail    map[string]bool
}

func newStubSearcher() *stubSearcher {
	return &stubSearcher{
		calls:   make(map[string]int),
		results: make(map[string][]model.Source),
		fail:    make(map[string]bool),
	}
}

func (s *stubSearcher) Search(_ context.Context, claim string, _ Options) ([]model.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[claim]++
	if s.fail[claim] {
		return nil, errors.New("search unavailable")
	}
	return s.results[claim], nil
}

func claimsOf(texts ...string) []model.Claim {
	claims := make([]model.Claim, len(texts))
	for i, text := range texts {
		claims[i] = model.Claim{Text: text, Verdict: model.VerdictTrue}
	}
	return claims
}

func TestEnricher_EnrichKeepsOrder(t *testing.T) {
	searcher := newStubSearcher()
	searcher.results["a"] = []model.Source{{URL: "https://www.reuters.com/a"}}
	searcher.results["b"] = []model.Source{{URL: "https://en.wikipedia.org/wiki/B"}}
	searcher.results["c"] = []model.Source{{URL: "https://someblog.example.com/c"}}

	enricher := NewEnricher(searcher, model.SearchConfig{Workers: 3}, nil)
	input := claimsOf("a", "b", "c")
	out := enricher.Enrich(context.Background(), input)

	require.Len(t, out, 3)
	for i, text := range []string{"a", "b", "c"} {
		assert.Equal(t, text, out[i].Text)
		require.Len(t, out[i].Sources, 1)
	}
	assert.Equal(t, model.TierPrimary, out[0].Sources[0].Authority)
	assert.Equal(t, model.TierSecondary, out[1].Sources[0].Authority)
	assert.Equal(t, model.TierTertiary, out[2].Sources[0].Authority)
	assert.Nil(t, out[0].Sources[0].Accessible, "no validator configured")

	assert.Nil(t, input[0].Sources, "input must not be modified")
}

func TestEnricher_FailureLeavesClaimUnsourced(t *testing.T) {
	searcher := newStubSearcher()
	searcher.results["ok"] = []model.Source{{URL: "https://apnews.com/x"}}
	searcher.fail["broken"] = true

	out := NewEnricher(searcher, model.SearchConfig{}, nil).Enrich(context.Background(), claimsOf("broken", "ok"))

	require.Len(t, out, 2)
	assert.Empty(t, out[0].Sources)
	assert.Len(t, out[1].Sources, 1)
}

func TestEnricher_Empty(t *testing.T) {
	out := NewEnricher(newStubSearcher(), model.SearchConfig{}, nil).Enrich(context.Background(), nil)
	assert.Empty(t, out)
}

func TestEnricher_Cache(t *testing.T) {
	searcher := newStubSearcher()
	searcher.results["cached claim"] = []model.Source{{URL: "https://snopes.com/x", Title: "x"}}

	enricher := NewEnricher(searcher, model.SearchConfig{}, nil).
		WithCache(cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)

	first := enricher.Enrich(context.Background(), claimsOf("cached claim"))
	second := enricher.Enrich(context.Background(), claimsOf("cached claim"))

	assert.Equal(t, 1, searcher.calls["cached claim"])
	assert.Equal(t, first, second)
}

func TestEnricher_Validator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	searcher := newStubSearcher()
	searcher.results["claim"] = []model.Source{
		{URL: server.URL + "/ok"},
		{URL: server.URL + "/gone"},
	}

	enricher := NewEnricher(searcher, model.SearchConfig{}, nil).
		WithValidator(validate.NewValidator(5*time.Second, 4, nil, "", "", ""))

	out := enricher.Enrich(context.Background(), claimsOf("claim"))
	require.Len(t, out[0].Sources, 2)

	require.NotNil(t, out[0].Sources[0].Accessible)
	assert.True(t, *out[0].Sources[0].Accessible)
	require.NotNil(t, out[0].Sources[1].Accessible)
	assert.False(t, *out[0].Sources[1].Accessible)
}
