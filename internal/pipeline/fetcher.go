package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/claimcheck/internal/util"
)

const fetchMaxRetries = 3

// fetchSleepFunc waits between fetch retries; tests replace it
var fetchSleepFunc = func(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// ErrDisallowed is returned when robots.txt forbids fetching a URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError reports a non-2xx response
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.StatusCode, e.Status)
}

// Fetcher downloads caption files and documents named by URL
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	timeout    time.Duration
	robots     *util.RobotsChecker
}

// NewFetcher creates a new Fetcher. Bodies larger than maxBytes are rejected.
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, respectRobots bool, httpProxy, httpsProxy, noProxy string) *Fetcher {
	proxy := util.NewProxyFunc(httpProxy, httpsProxy, noProxy)

	f := &Fetcher{
		httpClient: newFetchClient(timeout, &http.Transport{Proxy: proxy}),
		userAgent:  userAgent,
		maxBytes:   maxBytes,
		timeout:    timeout,
	}
	if respectRobots {
		f.robots = util.NewRobotsChecker(userAgent, timeout).WithProxy(proxy)
	}
	return f
}

// PublicOnly returns a copy of f that refuses to connect to loopback, private and
// link-local addresses, redirects included. The copy dials directly, without proxies,
// so the check sees the real destination.
func (f *Fetcher) PublicOnly() *Fetcher {
	dialer := &net.Dialer{
		Timeout:   f.timeout,
		KeepAlive: 30 * time.Second,
		Control:   util.PublicOnlyControl,
	}
	transport := &http.Transport{DialContext: dialer.DialContext}

	guarded := *f
	guarded.httpClient = newFetchClient(f.timeout, transport)
	if f.robots != nil {
		guarded.robots = util.NewRobotsChecker(f.userAgent, f.timeout).WithTransport(transport)
	}
	return &guarded
}

func newFetchClient(timeout time.Duration, transport *http.Transport) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}
}

// FetchResult contains the fetched body and metadata
type FetchResult struct {
	Body         string
	ContentType  string
	LastModified string
	FinalURL     string
}

// Fetch retrieves the body of rawURL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.robots != nil && !f.robots.IsAllowed(ctx, rawURL) {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, ErrDisallowed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/vtt,text/plain,text/html;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	// Read one byte past the limit to tell a full body from an oversized one
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", f.maxBytes)
	}

	return &FetchResult{
		Body:         string(body),
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		FinalURL:     resp.Request.URL.String(),
	}, nil
}

// FetchWithRetry retries transient failures (5xx, 429, network resets) with exponential backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 0; attempt < fetchMaxRetries; attempt++ {
		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt < fetchMaxRetries-1 {
			fetchSleepFunc(ctx, time.Duration(1<<uint(attempt))*time.Second)
			if ctx.Err() != nil {
				return nil, lastErr
			}
		}
	}
	return nil, lastErr
}

// isRetryableFetchError returns true for transient failures
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, util.ErrNonPublicAddress) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "timeout")
}
