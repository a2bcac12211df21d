package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/pipeline"
)

// app is the wired analysis stack shared by serve, analyze and batch
type app struct {
	cfg      *model.Config
	logger   *slog.Logger
	provider llm.Provider
	pipeline *pipeline.Pipeline
	fetcher  *pipeline.Fetcher
	closer   io.Closer
}

// newApp checks the provider key, builds the provider and wires optional enrichment
func newApp(ctx context.Context, cfg *model.Config, logger *slog.Logger) (*app, error) {
	if err := requireAPIKey(cfg); err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	p := pipeline.NewPipeline(cfg, provider).WithLogger(logger)

	enricher, closer, err := pipeline.NewEnricher(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("configure enrichment: %w", err)
	}
	if enricher != nil {
		p.WithEnricher(enricher)
	}

	fetcher := pipeline.NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.RespectRobots, cfg.LLM.HTTPProxy, cfg.LLM.HTTPSProxy, cfg.LLM.NoProxy)

	logger.Debug("analysis stack ready",
		"provider", provider.Name(),
		"model", cfg.LLM.Model,
		"enrichment", enricher != nil)

	return &app{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		pipeline: p,
		fetcher:  fetcher,
		closer:   closer,
	}, nil
}

func (a *app) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
