package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultBackoff     = 2 * time.Second
	maxBodyBytes       = 5 << 20
	browserUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultAcceptHTML  = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	defaultAcceptLang  = "en-US,en;q=0.9"
	defaultRequestsMin = 5
)

// StatusError is returned for a non-200 response that is not retried or
// that kept failing after every retry.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned %d: %s", e.URL, e.StatusCode, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ClientOptions tunes request pacing and retries.
type ClientOptions struct {
	RequestsPerMinute int
	Timeout           time.Duration
	MaxRetries        int
	Backoff           time.Duration // first retry delay, doubled each attempt
}

// Client is an HTTP client shared by every source. All requests go through
// one rate limiter so searches, pages and feeds are paced together.
type Client struct {
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	log        *slog.Logger
}

// NewClient constructs a paced Client. Zero options fall back to 5 requests
// per minute, a 15s timeout and a 2s initial backoff.
func NewClient(opts ClientOptions, log *slog.Logger) *Client {
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = defaultRequestsMin
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Client{
		http:       &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1),
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		log:        log.With("component", "http"),
	}
}

// Get fetches url and returns the body of a 200 response. Transport errors,
// 429 and 5xx responses are retried with exponential backoff.
func (c *Client) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff << (attempt - 1)
			c.log.Warn("retrying request", "url", url, "attempt", attempt, "delay", delay, "err", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.do(ctx, url, header)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) do(ctx context.Context, url string, header http.Header) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

func browserHeaders(referer string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", browserUserAgent)
	h.Set("Accept", defaultAcceptHTML)
	h.Set("Accept-Language", defaultAcceptLang)
	if referer != "" {
		h.Set("Referer", referer)
	}
	return h
}
