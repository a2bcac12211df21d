package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/claimcheck/internal/cache"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/validate"
	"github.com/ppiankov/claimcheck/internal/worker"
)

// Enricher attaches web sources to claims. Failures never reach the caller:
// a claim whose search fails is returned without sources.
type Enricher struct {
	searcher  Searcher
	opts      Options
	workers   int
	authority *validate.AuthorityClassifier
	validator *validate.Validator
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// NewEnricher creates an enricher running up to cfg.Workers searches at once
func NewEnricher(searcher Searcher, cfg model.SearchConfig, authority *model.AuthorityConfig) *Enricher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Enricher{
		searcher: searcher,
		opts: Options{
			MaxResults:     cfg.MaxResults,
			Depth:          cfg.Depth,
			IncludeDomains: cfg.IncludeDomains,
		},
		workers:   workers,
		authority: validate.NewAuthorityClassifier(authority),
		logger:    slog.Default(),
	}
}

// WithValidator checks every source URL after searching
func (e *Enricher) WithValidator(v *validate.Validator) *Enricher {
	e.validator = v
	return e
}

// WithCache reuses search responses for identical claims
func (e *Enricher) WithCache(c cache.Cache, ttl time.Duration) *Enricher {
	e.cache = c
	e.cacheTTL = ttl
	return e
}

// WithLogger sets the logger used for enrichment failures
func (e *Enricher) WithLogger(l *slog.Logger) *Enricher {
	if l != nil {
		e.logger = l
	}
	return e
}

// Enrich returns a copy of claims, in the same order, with sources attached
func (e *Enricher) Enrich(ctx context.Context, claims []model.Claim) []model.Claim {
	out := make([]model.Claim, len(claims))
	copy(out, claims)
	if len(out) == 0 {
		return out
	}

	jobs := make([]worker.Job, len(out))
	for i, c := range out {
		jobs[i] = &searchJob{index: i, claim: c.Text, enricher: e}
	}

	pool := worker.NewPool(ctx, e.workers)
	pool.Start()
	for _, r := range pool.Run(jobs) {
		res, ok := r.(*searchResult)
		if !ok {
			continue
		}
		if res.err != nil {
			e.logger.Warn("claim search failed", "claim", abbreviate(out[res.index].Text), "error", res.err)
			continue
		}
		out[res.index].Sources = append([]model.Source(nil), res.sources...)
	}

	e.checkSources(ctx, out)
	return out
}

// checkSources classifies every source and, with a validator, checks it in one batch
func (e *Enricher) checkSources(ctx context.Context, claims []model.Claim) {
	var urls []string
	for i := range claims {
		for j := range claims[i].Sources {
			src := &claims[i].Sources[j]
			src.Authority = e.authority.Classify(src.URL)
			urls = append(urls, src.URL)
		}
	}
	if e.validator == nil || len(urls) == 0 {
		return
	}

	results := e.validator.Validate(ctx, urls)
	n := 0
	for i := range claims {
		for j := range claims[i].Sources {
			r := results[n]
			n++
			// Unchecked sources (robots.txt, cancellation) stay unknown
			if r.Disallowed || (r.StatusCode == 0 && !r.IsDead) {
				continue
			}
			accessible := r.IsAccessible
			claims[i].Sources[j].Accessible = &accessible
			if r.RedirectURL != "" {
				claims[i].Sources[j].URL = r.RedirectURL
				claims[i].Sources[j].Authority = e.authority.Classify(r.RedirectURL)
			}
		}
	}
}

func (e *Enricher) search(ctx context.Context, claim string) ([]model.Source, error) {
	if e.cache == nil {
		return e.searcher.Search(ctx, claim, e.opts)
	}

	key := cache.Key("search", claim, e.opts.Depth, strconv.Itoa(e.opts.MaxResults), strings.Join(e.opts.IncludeDomains, ","))
	if data, found := e.cache.Get(ctx, key); found {
		var sources []model.Source
		if err := json.Unmarshal(data, &sources); err == nil {
			return sources, nil
		}
	}

	sources, err := e.searcher.Search(ctx, claim, e.opts)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(sources); err == nil {
		if err := e.cache.Set(ctx, key, data, e.cacheTTL); err != nil {
			e.logger.Debug("search cache write failed", "error", err)
		}
	}
	return sources, nil
}

type searchJob struct {
	index    int
	claim    string
	enricher *Enricher
}

type searchResult struct {
	index   int
	sources []model.Source
	err     error
}

func (r *searchResult) GetError() error { return r.err }

func (j *searchJob) Execute(ctx context.Context) worker.Result {
	sources, err := j.enricher.search(ctx, j.claim)
	return &searchResult{index: j.index, sources: sources, err: err}
}

func abbreviate(s string) string {
	if r := []rune(s); len(r) > 50 {
		return string(r[:50]) + "..."
	}
	return s
}
