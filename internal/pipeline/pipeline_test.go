package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimcheck/internal/apperr"
	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/parse"
	"github.com/ppiankov/claimcheck/internal/prompt"
)

type stubProvider struct {
	mu      sync.Mutex
	calls   int
	prompts []prompt.Prompt
	payload *llm.Payload
	err     error
}

func (s *stubProvider) Name() string                     { return "stub" }
func (s *stubProvider) IsAvailable(context.Context) bool { return true }

func (s *stubProvider) Send(_ context.Context, pr prompt.Prompt) (*llm.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompts = append(s.prompts, pr)
	if s.err != nil {
		return nil, s.err
	}
	return s.payload, nil
}

func replying(content string) *stubProvider {
	return &stubProvider{payload: &llm.Payload{Content: content, Model: "stub-model", TokensUsed: 42}}
}

func newTestPipeline(p llm.Provider) *Pipeline {
	return New(prompt.NewBuilder(1000, false), p, parse.NewParser()).WithModel("configured-model")
}

const earthFlatReply = `{"claims":[
	{"text":"The Earth is flat","verdict":"false","explanation":"The Earth is an oblate spheroid.","confidence":99},
	{"text":"the sky is green","verdict":"false","explanation":"The sky appears blue due to Rayleigh scattering.","confidence":97}
],"reasoning":"Two checkable claims, both contradicted by observation."}`

func TestAnalyze_EarthFlat(t *testing.T) {
	provider := replying(earthFlatReply)
	p := newTestPipeline(provider)

	result, err := p.Analyze(context.Background(), model.AnalysisRequest{Text: "The Earth is flat and the sky is green."})
	require.NoError(t, err)

	require.Len(t, result.Claims, 2)
	assert.Equal(t, "The Earth is flat", result.Claims[0].Text)
	assert.Equal(t, model.VerdictFalse, result.Claims[0].Verdict)
	assert.Equal(t, "the sky is green", result.Claims[1].Text)
	assert.Equal(t, model.VerdictFalse, result.Claims[1].Verdict)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "stub", result.Provider)
	assert.Equal(t, "stub-model", result.Model)
	assert.Equal(t, model.SourceText, result.Source)
	assert.Equal(t, 42, result.TokensUsed)
	assert.Equal(t, "Two checkable claims, both contradicted by observation.", result.Reasoning)
	assert.False(t, result.AnalyzedAt.IsZero())

	assert.Equal(t, 2, result.Breakdown.Total)
	assert.Equal(t, 2, result.Breakdown.False)
	require.NotNil(t, result.Breakdown.AccuracyIndex)
	assert.Equal(t, 0, *result.Breakdown.AccuracyIndex)

	assert.Contains(t, result.HTML, `<span class="marker">The Earth is flat [1]</span>`)
	assert.Contains(t, result.HTML, `<span class="marker">the sky is green [2]</span>`)

	assert.Equal(t, 1, provider.calls)
}

func TestAnalyze_EmptyInputSkipsProvider(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		provider := replying(earthFlatReply)
		_, err := newTestPipeline(provider).Analyze(context.Background(), model.AnalysisRequest{Text: text})

		assert.True(t, apperr.IsInvalidInput(err), "text %q: got %v", text, err)
		assert.Zero(t, provider.calls)
	}
}

func TestAnalyze_TooLong(t *testing.T) {
	provider := replying(earthFlatReply)
	_, err := newTestPipeline(provider).Analyze(context.Background(), model.AnalysisRequest{Text: strings.Repeat("a", 1001)})

	assert.True(t, apperr.IsInvalidInput(err))
	assert.Zero(t, provider.calls)
}

func TestAnalyze_ClaimOrder(t *testing.T) {
	provider := replying(`{"claims":[
		{"text":"first","verdict":"true","explanation":"a"},
		{"text":"second","verdict":"unverifiable","explanation":"b"},
		{"text":"third","verdict":"false","explanation":"c"}
	],"reasoning":""}`)

	result, err := newTestPipeline(provider).Analyze(context.Background(), model.AnalysisRequest{Text: "first second third"})
	require.NoError(t, err)

	require.Len(t, result.Claims, 3)
	for i, want := range []string{"first", "second", "third"} {
		assert.Equal(t, want, result.Claims[i].Text)
	}
	require.NotNil(t, result.Breakdown.AccuracyIndex)
	assert.Equal(t, 50, *result.Breakdown.AccuracyIndex)
}

func TestAnalyze_CapitalisedVerdict(t *testing.T) {
	provider := replying(`{"claims":[{"text":"The Earth is flat","verdict":"False","explanation":"It is an oblate spheroid."}]}`)

	result, err := newTestPipeline(provider).Analyze(context.Background(), model.AnalysisRequest{Text: "The Earth is flat."})
	require.NoError(t, err)

	require.Len(t, result.Claims, 1)
	assert.Equal(t, model.VerdictFalse, result.Claims[0].Verdict)
	assert.Equal(t, 1, result.Breakdown.False)
}

func TestAnalyze_NoClaims(t *testing.T) {
	provider := replying(`{"claims":[],"reasoning":"Opinion only."}`)

	result, err := newTestPipeline(provider).Analyze(context.Background(), model.AnalysisRequest{Text: "I like tea."})
	require.NoError(t, err)

	assert.Empty(t, result.Claims)
	assert.Nil(t, result.Breakdown.AccuracyIndex)
	assert.Equal(t, "I like tea.", result.HTML)
}

func TestAnalyze_MalformedPayload(t *testing.T) {
	tests := map[string]string{
		"missing verdict": `{"claims":[{"text":"x","explanation":"y"}],"reasoning":""}`,
		"not json":        `Sure! Here are the claims.`,
		"bad verdict":     `{"claims":[{"text":"x","verdict":"maybe","explanation":"y"}],"reasoning":""}`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			result, err := newTestPipeline(replying(content)).Analyze(context.Background(), model.AnalysisRequest{Text: "x"})
			assert.Nil(t, result)
			assert.True(t, apperr.IsMalformedResponse(err), "got %v", err)
		})
	}
}

func TestAnalyze_ProviderErrorUnchanged(t *testing.T) {
	want := apperr.UpstreamRateLimit("stub rate limited", nil)
	provider := &stubProvider{err: want}

	_, err := newTestPipeline(provider).Analyze(context.Background(), model.AnalysisRequest{Text: "x"})
	assert.Same(t, want, err)
}

func TestAnalyze_ProviderTimeout(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	provider, err := llm.NewOpenAIProvider(llm.Config{
		Provider: "openai",
		APIKey:   "sk-test",
		BaseURL:  server.URL + "/v1",
		Timeout:  30,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = newTestPipeline(provider).Analyze(ctx, model.AnalysisRequest{Text: "The Earth is flat."})
	assert.True(t, apperr.IsUpstreamUnavailable(err), "got %v", err)
	assert.Equal(t, int32(1), requests.Load())
}

func TestAnalyze_VideoSource(t *testing.T) {
	provider := replying(`{"claims":[],"reasoning":""}`)

	result, err := newTestPipeline(provider).Analyze(context.Background(), model.AnalysisRequest{Text: "spoken words", Source: model.SourceVideo})
	require.NoError(t, err)
	assert.Equal(t, model.SourceVideo, result.Source)
}

func TestAnalyze_ModelFallback(t *testing.T) {
	provider := &stubProvider{payload: &llm.Payload{Content: `{"claims":[],"reasoning":""}`}}

	result, err := newTestPipeline(provider).Analyze(context.Background(), model.AnalysisRequest{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "configured-model", result.Model)
}

type stubEnricher struct{ calls int }

func (e *stubEnricher) Enrich(_ context.Context, claims []model.Claim) []model.Claim {
	e.calls++
	out := make([]model.Claim, len(claims))
	copy(out, claims)
	accessible := true
	for i := range out {
		out[i].Sources = []model.Source{{URL: "https://www.reuters.com/x", Authority: model.TierPrimary, Accessible: &accessible}}
	}
	return out
}

func TestAnalyze_Enrichment(t *testing.T) {
	enricher := &stubEnricher{}
	p := newTestPipeline(replying(earthFlatReply)).WithEnricher(enricher)

	result, err := p.Analyze(context.Background(), model.AnalysisRequest{Text: "The Earth is flat and the sky is green."})
	require.NoError(t, err)

	assert.Equal(t, 1, enricher.calls)
	for _, c := range result.Claims {
		assert.Len(t, c.Sources, 1)
	}

	var types []model.SignalType
	for _, s := range result.Breakdown.Signals {
		types = append(types, s.Type)
	}
	assert.Contains(t, types, model.SignalAuthorityDistribution)
}

func TestAnalyze_EnrichmentSkippedWithoutClaims(t *testing.T) {
	enricher := &stubEnricher{}
	p := newTestPipeline(replying(`{"claims":[],"reasoning":""}`)).WithEnricher(enricher)

	_, err := p.Analyze(context.Background(), model.AnalysisRequest{Text: "x"})
	require.NoError(t, err)
	assert.Zero(t, enricher.calls)
}
