package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
)

const (
	robotsTTL     = time.Hour
	robotsMaxSize = 512 * 1024
)

// RobotsChecker answers robots.txt questions for source validation.
// Parsed files are kept per scheme and host for an hour.
type RobotsChecker struct {
	rules      *gocache.Cache
	httpClient *http.Client
	agent      string
	userAgent  string
}

// NewRobotsChecker creates a checker identifying itself with userAgent
func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	return &RobotsChecker{
		rules:      gocache.New(robotsTTL, 2*robotsTTL),
		httpClient: &http.Client{Timeout: timeout},
		agent:      NormalizeUserAgent(userAgent),
		userAgent:  userAgent,
	}
}

// WithProxy routes robots.txt fetches through the given proxy function
func (r *RobotsChecker) WithProxy(proxy func(*http.Request) (*url.URL, error)) *RobotsChecker {
	r.httpClient.Transport = &http.Transport{Proxy: proxy}
	return r
}

// WithTransport sends robots.txt fetches through rt
func (r *RobotsChecker) WithTransport(rt http.RoundTripper) *RobotsChecker {
	r.httpClient.Transport = rt
	return r
}

// CanFetch reports whether robots.txt allows rawURL and the crawl delay of
// the matching group. Unreachable or broken robots.txt files allow everything.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true, 0, fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Host == "" {
		return true, 0, fmt.Errorf("URL %q has no host", rawURL)
	}

	data, err := r.rulesFor(ctx, parsed)
	if err != nil {
		return true, 0, err
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}

	var delay time.Duration
	if group := data.FindGroup(r.agent); group != nil {
		delay = group.CrawlDelay
	}
	return data.TestAgent(path, r.agent), delay, nil
}

// IsAllowed is CanFetch without the details
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) bool {
	allowed, _, _ := r.CanFetch(ctx, rawURL)
	return allowed
}

func (r *RobotsChecker) rulesFor(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	origin := target.Scheme + "://" + target.Host
	if cached, ok := r.rules.Get(origin); ok {
		return cached.(*robotstxt.RobotsData), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("create robots request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, robotsMaxSize))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}

	// 4xx allows everything, 5xx disallows everything
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.rules.SetDefault(origin, data)
	return data, nil
}

// NormalizeUserAgent reduces a User-Agent header to the product token
// robots.txt groups are matched against ("claimcheck/1.0 (+url)" -> "claimcheck").
func NormalizeUserAgent(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) == 0 {
		return ua
	}
	return strings.Split(parts[0], "/")[0]
}
