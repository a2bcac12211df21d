// Package pipeline runs one analysis end to end: prompt, provider call, parse,
// then the derived fields of the result.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/claimcheck/internal/extract"
	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/parse"
	"github.com/ppiankov/claimcheck/internal/prompt"
	"github.com/ppiankov/claimcheck/internal/score"
)

// Enricher attaches sources to claims; it must not fail the analysis
type Enricher interface {
	Enrich(ctx context.Context, claims []model.Claim) []model.Claim
}

// Pipeline orchestrates a single analysis. It holds no per-request state and is
// safe for concurrent use when its provider and enricher are.
type Pipeline struct {
	builder   *prompt.Builder
	provider  llm.Provider
	parser    *parse.Parser
	scorer    *score.Scorer
	enricher  Enricher
	modelName string
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a pipeline from its three stages
func New(builder *prompt.Builder, provider llm.Provider, parser *parse.Parser) *Pipeline {
	return &Pipeline{
		builder:  builder,
		provider: provider,
		parser:   parser,
		scorer:   score.NewScorer(),
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NewPipeline creates a pipeline for the configured limits around provider
func NewPipeline(cfg *model.Config, provider llm.Provider) *Pipeline {
	return New(
		prompt.NewBuilder(cfg.Analysis.MaxInputChars, cfg.LLM.StrictSchema),
		provider,
		parse.NewParser(),
	).WithModel(cfg.LLM.Model)
}

// WithEnricher enables claim enrichment
func (p *Pipeline) WithEnricher(e Enricher) *Pipeline {
	p.enricher = e
	return p
}

// WithModel sets the model name reported when the provider does not echo one
func (p *Pipeline) WithModel(name string) *Pipeline {
	p.modelName = name
	return p
}

// WithLogger sets the pipeline logger
func (p *Pipeline) WithLogger(l *slog.Logger) *Pipeline {
	if l != nil {
		p.logger = l
	}
	return p
}

// Provider returns the provider used for analysis
func (p *Pipeline) Provider() llm.Provider {
	return p.provider
}

// Analyze checks the claims in req. Errors from the builder, provider and parser
// are returned as they are, so callers see their apperr kind.
func (p *Pipeline) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error) {
	pr, err := p.builder.Build(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	payload, err := p.provider.Send(ctx, pr)
	if err != nil {
		p.logger.Warn("provider call failed",
			"provider", p.provider.Name(),
			"duration", time.Since(start),
			"error", err)
		return nil, err
	}

	parsed, err := p.parser.Parse(payload.Content, pr.Schema)
	if err != nil {
		p.logger.Warn("provider reply rejected",
			"provider", p.provider.Name(),
			"model", payload.Model,
			"error", err)
		return nil, err
	}

	modelName := payload.Model
	if modelName == "" {
		modelName = p.modelName
	}

	result := &model.AnalysisResult{
		ID:         uuid.NewString(),
		Claims:     parsed.Claims,
		Model:      modelName,
		Provider:   p.provider.Name(),
		Source:     req.SourceLabel(),
		AnalyzedAt: p.now(),
		Reasoning:  parsed.Reasoning,
		TokensUsed: payload.TokensUsed,
	}

	if p.enricher != nil && len(result.Claims) > 0 {
		result.Claims = p.enricher.Enrich(ctx, result.Claims)
	}

	result.Breakdown = p.scorer.Calculate(result.Claims)

	if markup, err := extract.Markup(req.Text, result.Claims); err != nil {
		p.logger.Warn("claim markup failed", "id", result.ID, "error", err)
	} else {
		result.HTML = markup
	}

	p.logger.Info("analysis complete",
		"id", result.ID,
		"provider", result.Provider,
		"model", result.Model,
		"source", result.Source,
		"claims", len(result.Claims),
		"duration", time.Since(start))

	return result, nil
}
