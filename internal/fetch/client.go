// Package fetch implements the one-shot HTTP client used for manifest and
// rendition downloads.
//
// The client never retries: a failed master fetch fails the enclosing
// analysis, and a failed rendition fetch is recorded in its Result and
// skipped without disturbing sibling fetches.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Result is the outcome of exactly one GET. On failure Body is empty and Err
// describes the transport or status problem.
type Result struct {
	URL  string
	Body []byte
	Err  error
}

// Config holds client construction options.
type Config struct {
	// Timeout bounds each individual request. Zero means no timeout.
	Timeout time.Duration

	// UserAgent is sent on every request.
	UserAgent string

	// Transport overrides the default transport. Useful for testing.
	Transport http.RoundTripper

	// OnComplete, when set, is invoked once per finished fetch with the
	// request wall time. It may be called from arbitrary goroutines.
	OnComplete func(url string, elapsed time.Duration, err error)
}

// Client issues one-shot GET requests for playlist bodies.
type Client struct {
	httpClient *http.Client
	userAgent  string
	onComplete func(url string, elapsed time.Duration, err error)
	logger     *slog.Logger
}

// NewClient creates a Client with the given configuration.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		userAgent:  cfg.UserAgent,
		onComplete: cfg.OnComplete,
		logger:     logger,
	}
}

// Fetch performs one GET and resolves exactly once, success or failure.
// A non-2xx status is a failure.
func (c *Client) Fetch(ctx context.Context, url string) Result {
	start := time.Now()
	body, err := c.get(ctx, url)
	elapsed := time.Since(start)

	if c.onComplete != nil {
		c.onComplete(url, elapsed, err)
	}

	if err != nil {
		c.logger.Debug("fetch_failed", "url", url, "elapsed", elapsed.String(), "error", err)
		return Result{URL: url, Err: err}
	}

	c.logger.Debug("fetch_complete", "url", url, "bytes", len(body), "elapsed", elapsed.String())
	return Result{URL: url, Body: body}
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}

// FetchAll fans out one goroutine per URL and collects every completion over
// a channel. It returns only after all fetches have resolved, success or
// failure; this is the fan-in barrier between the fetch and measurement
// stages. Results come back in input order.
func (c *Client) FetchAll(ctx context.Context, urls []string) []Result {
	if len(urls) == 0 {
		return nil
	}

	type indexed struct {
		i int
		r Result
	}

	ch := make(chan indexed, len(urls))
	for i, u := range urls {
		go func(i int, u string) {
			ch <- indexed{i: i, r: c.Fetch(ctx, u)}
		}(i, u)
	}

	results := make([]Result, len(urls))
	for range urls {
		done := <-ch
		results[done.i] = done.r
	}
	return results
}
