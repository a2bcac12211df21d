package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ppiankov/claimcheck/internal/cache"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/search"
	"github.com/ppiankov/claimcheck/internal/util"
	"github.com/ppiankov/claimcheck/internal/validate"
	"github.com/ppiankov/claimcheck/internal/worker"
)

// EnrichmentEnabled reports whether cfg turns on claim enrichment.
// A search API key alone is enough; search.enabled without one is a config error.
func EnrichmentEnabled(cfg *model.Config) bool {
	return cfg.Search.Enabled || cfg.Search.APIKey != ""
}

// NewEnricher wires the search client, cache and source validator described by cfg.
// It returns a nil enricher when enrichment is off. The closer releases the cache.
func NewEnricher(ctx context.Context, cfg *model.Config, logger *slog.Logger) (*search.Enricher, io.Closer, error) {
	if !EnrichmentEnabled(cfg) {
		return nil, nopCloser{}, nil
	}
	if cfg.Search.APIKey == "" {
		return nil, nil, fmt.Errorf("search is enabled but no API key is set (TAVILY_API_KEY)")
	}

	proxy := util.NewProxyFunc(cfg.LLM.HTTPProxy, cfg.LLM.HTTPSProxy, cfg.LLM.NoProxy)
	client, err := search.NewTavilyClient(cfg.Search.APIKey, cfg.Search.BaseURL, &http.Client{
		Timeout:   cfg.HTTP.Timeout,
		Transport: &http.Transport{Proxy: proxy},
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.Search.RatePerSecond > 0 {
		client.WithLimiter(worker.NewLimiter(cfg.Search.RatePerSecond, cfg.Search.Burst))
	}

	enricher := search.NewEnricher(client, cfg.Search, &cfg.Authority).WithLogger(logger)

	var closer io.Closer = nopCloser{}
	store, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("create cache: %w", err)
	}
	if store != nil {
		if r, ok := store.(*cache.RedisCache); ok {
			if err := r.Ping(ctx); err != nil {
				_ = r.Close()
				return nil, nil, fmt.Errorf("connect to redis: %w", err)
			}
			closer = r
		}
		enricher.WithCache(store, cfg.Cache.TTL)
	}

	if cfg.Search.ValidateSources {
		v := validate.NewValidator(cfg.HTTP.Timeout, cfg.Search.ValidateWorkers, &cfg.Authority,
			cfg.LLM.HTTPProxy, cfg.LLM.HTTPSProxy, cfg.LLM.NoProxy).
			WithUserAgent(cfg.HTTP.UserAgent)
		if cfg.HTTP.RespectRobots {
			v.WithRobots(util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout).WithProxy(proxy))
		}
		if store != nil {
			v.WithCache(store, cfg.Cache.TTL)
		}
		enricher.WithValidator(v)
	}

	logger.Info("claim enrichment enabled",
		"cache", cfg.Cache.Backend,
		"validate_sources", cfg.Search.ValidateSources,
		"workers", cfg.Search.Workers)

	return enricher, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
