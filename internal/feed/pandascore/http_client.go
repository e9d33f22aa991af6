package pandascore

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"

	"github.com/Vodeneev/oddsedge/internal/feed"
	"github.com/Vodeneev/oddsedge/internal/pkg/ratelimit"
)

const (
	defaultBaseURL = "https://api.pandascore.co"
	userAgent      = "oddsedge/1.0"

	// AuthHeader sends the token as "Authorization: Bearer".
	AuthHeader = "header"
	// AuthQuery sends the token as the "token" query parameter.
	AuthQuery = "query"

	leagueFilterParam = "filter[league_slug]"
)

// Client performs PandaScore requests with retries, backoff and cooldowns.
type Client struct {
	baseURL     string
	token       string
	authMode    string
	httpClient  *http.Client
	limiter     *ratelimit.Window
	maxRetries  int
	backoffUnit time.Duration
	cooldown    time.Duration
}

// ClientOptions configures the HTTP client.
type ClientOptions struct {
	BaseURL     string
	Token       string
	AuthMode    string
	Timeout     time.Duration
	MaxRetries  int           // total attempts per request for transient failures
	BackoffUnit time.Duration // wait before attempt n+1 is 2^n × unit
	Cooldown    time.Duration // fixed wait after a 429
	Limiter     *ratelimit.Window
}

// NewClient creates a PandaScore HTTP client.
func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.BackoffUnit <= 0 {
		opts.BackoffUnit = time.Second
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = 60 * time.Second
	}
	if opts.AuthMode == "" {
		opts.AuthMode = AuthHeader
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableCompression = true // we send Accept-Encoding and decode in readBodyDecode
	transport.Proxy = http.ProxyFromEnvironment

	return &Client{
		baseURL:     baseURL,
		token:       opts.Token,
		authMode:    opts.AuthMode,
		httpClient:  &http.Client{Timeout: opts.Timeout, Transport: transport},
		limiter:     opts.Limiter,
		maxRetries:  opts.MaxRetries,
		backoffUnit: opts.BackoffUnit,
		cooldown:    opts.Cooldown,
	}
}

// Get fetches path with query and returns the decoded body.
// Transient failures are retried up to maxRetries attempts in total with
// exponential backoff. A 429 waits the fixed cooldown and retries without
// advancing the backoff counter; cooldowns are bounded by maxRetries too.
// Other 4xx are returned at once as *feed.ClientError.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	attempts, cooldowns := 0, 0
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		body, err := c.do(ctx, path, query)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var rl *feed.RateLimitError
		var te *feed.TransientError
		switch {
		case errors.As(err, &rl):
			cooldowns++
			if cooldowns > c.maxRetries {
				return nil, fmt.Errorf("pandascore: GET %s: still rate limited after %d cooldowns: %w", path, c.maxRetries, err)
			}
			slog.Warn("PandaScore: rate limited (429), cooling down", "path", path, "cooldown", c.cooldown)
			if err := sleepCtx(ctx, c.cooldown); err != nil {
				return nil, err
			}
		case errors.As(err, &te):
			attempts++
			if attempts >= c.maxRetries {
				return nil, fmt.Errorf("pandascore: GET %s: giving up after %d attempts: %w", path, attempts, err)
			}
			wait := c.backoff(attempts)
			slog.Warn("PandaScore: transient error, retrying", "path", path, "attempt", attempts, "wait", wait, "error", err)
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * c.backoffUnit
}

// do performs a single request and classifies the outcome.
func (c *Client) do(ctx context.Context, path string, query url.Values) ([]byte, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	if c.authMode == AuthQuery {
		q.Set("token", c.token)
	}
	requestURL := c.baseURL + path
	if enc := q.Encode(); enc != "" {
		requestURL += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("pandascore: build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &feed.TransientError{Err: err}
	}
	defer resp.Body.Close()

	body, err := readBodyDecode(resp)
	if err != nil {
		return nil, &feed.TransientError{Status: resp.StatusCode, Err: err}
	}
	return c.handleResponse(resp, body, path, query.Has(leagueFilterParam))
}

// setHeaders sets HTTP headers for requests
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br, zstd, gzip")
	if c.authMode != AuthQuery && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// handleResponse maps the status code onto the feed error taxonomy.
func (c *Client) handleResponse(resp *http.Response, body []byte, path string, filtered bool) ([]byte, error) {
	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &feed.RateLimitError{RetryAfter: c.cooldown}
	case resp.StatusCode >= 500:
		return nil, &feed.TransientError{Status: resp.StatusCode}
	}

	bodyStr := string(body)
	if len(bodyStr) > 500 {
		bodyStr = bodyStr[:500] + "..."
	}
	slog.Warn("PandaScore: HTTP error response",
		"path", path,
		"status", resp.StatusCode,
		"body_preview", bodyStr)

	return nil, &feed.ClientError{
		Status:         resp.StatusCode,
		FilterRejected: filtered && resp.StatusCode == http.StatusBadRequest,
		Body:           bodyStr,
	}
}

// readBodyDecode reads response body and decompresses it based on Content-Encoding (gzip, br, zstd).
func readBodyDecode(resp *http.Response) ([]byte, error) {
	enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch {
	case strings.Contains(enc, "br"):
		return io.ReadAll(brotli.NewReader(resp.Body))
	case strings.Contains(enc, "zstd"):
		r, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case strings.Contains(enc, "gzip"):
		r, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer r.Close()
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read gzip body: %w", err)
		}
		return b, nil
	default:
		return io.ReadAll(resp.Body)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
