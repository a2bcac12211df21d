package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/claimcheck/internal/cache"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/util"
)

const validateMaxRetries = 3

// validateSleepFunc waits between retries; tests replace it
var validateSleepFunc = func(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Validator checks source URLs concurrently
type Validator struct {
	httpClient *http.Client
	maxWorkers int
	authority  *AuthorityClassifier
	userAgent  string
	robots     *util.RobotsChecker
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewValidator creates a new validator
func NewValidator(timeout time.Duration, maxWorkers int, authConfig *model.AuthorityConfig, httpProxy, httpsProxy, noProxy string) *Validator {
	if maxWorkers <= 0 {
		maxWorkers = 20
	}

	proxyFunc := util.NewProxyFunc(httpProxy, httpsProxy, noProxy)

	return &Validator{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: proxyFunc,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		maxWorkers: maxWorkers,
		authority:  NewAuthorityClassifier(authConfig),
		userAgent:  model.DefaultConfig().HTTP.UserAgent,
	}
}

// WithUserAgent sets the User-Agent sent with checks
func (v *Validator) WithUserAgent(ua string) *Validator {
	if ua != "" {
		v.userAgent = ua
	}
	return v
}

// WithRobots makes the validator skip URLs that robots.txt disallows
func (v *Validator) WithRobots(robots *util.RobotsChecker) *Validator {
	v.robots = robots
	return v
}

// WithCache stores results so repeated sources are checked once per ttl
func (v *Validator) WithCache(c cache.Cache, ttl time.Duration) *Validator {
	v.cache = c
	v.cacheTTL = ttl
	return v
}

// Classify returns the authority tier of a URL without fetching it
func (v *Validator) Classify(rawURL string) model.AuthorityTier {
	return v.authority.Classify(rawURL)
}

// Validate checks all URLs concurrently; results keep the input order
func (v *Validator) Validate(ctx context.Context, urls []string) []model.ValidationResult {
	results := make([]model.ValidationResult, len(urls))
	if len(urls) == 0 {
		return results
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, v.maxWorkers)

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, rawURL string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = model.ValidationResult{
					URL:       rawURL,
					Authority: v.authority.Classify(rawURL),
					Error:     "context cancelled",
				}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = v.validateCached(ctx, rawURL)
		}(i, u)
	}

	wg.Wait()
	return results
}

func (v *Validator) validateCached(ctx context.Context, rawURL string) model.ValidationResult {
	if v.cache == nil {
		return v.validateSingleWithRetry(ctx, rawURL)
	}

	key := cache.Key("validate", rawURL)
	if data, found := v.cache.Get(ctx, key); found {
		var cached model.ValidationResult
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached
		}
	}

	result := v.validateSingleWithRetry(ctx, rawURL)
	// Failures caused by our own cancellation say nothing about the source
	if ctx.Err() == nil {
		if data, err := json.Marshal(result); err == nil {
			_ = v.cache.Set(ctx, key, data, v.cacheTTL)
		}
	}
	return result
}

// validateSingle checks a single URL with a HEAD request
func (v *Validator) validateSingle(ctx context.Context, rawURL string) model.ValidationResult {
	result := model.ValidationResult{
		URL:       rawURL,
		Authority: v.authority.Classify(rawURL),
	}

	if v.robots != nil {
		if allowed, _, _ := v.robots.CanFetch(ctx, rawURL); !allowed {
			result.Disallowed = true
			return result
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		result.IsDead = true
		return result
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.IsDead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.IsAccessible = true
	} else if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		result.IsDead = true
	}

	if final := resp.Request.URL.String(); final != rawURL {
		result.RedirectURL = final
	}

	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		if t, err := http.ParseTime(lastModified); err == nil {
			result.LastModified = &t
		}
	}

	return result
}

// validateSingleWithRetry retries transient failures with exponential backoff
func (v *Validator) validateSingleWithRetry(ctx context.Context, rawURL string) model.ValidationResult {
	var result model.ValidationResult
	for attempt := 0; attempt < validateMaxRetries; attempt++ {
		result = v.validateSingle(ctx, rawURL)
		if !isRetryableValidationResult(result) || ctx.Err() != nil {
			return result
		}
		if attempt < validateMaxRetries-1 {
			validateSleepFunc(ctx, time.Duration(1<<uint(attempt))*time.Second)
		}
	}
	return result
}

// isRetryableValidationResult returns true for results that indicate transient failures
func isRetryableValidationResult(result model.ValidationResult) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if result.Error != "" {
		return isRetryableNetworkError(result.Error)
	}
	return false
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
