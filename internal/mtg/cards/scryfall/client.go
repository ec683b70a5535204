// Package scryfall is a rate-limited client for the Scryfall card API.
package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.scryfall.com"
	rateLimitDelay = 100 * time.Millisecond // 100ms between requests (10 req/sec)
	requestTimeout = 30 * time.Second
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	// BaseURL is the API root. Default: https://api.scryfall.com
	BaseURL string

	// RequestsPerSecond bounds the request rate. Default: 10
	RequestsPerSecond float64

	UserAgent  string
	HTTPClient *http.Client
}

// Client represents a Scryfall API client with rate limiting.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
	backoff     time.Duration
}

// NewClient creates a new Scryfall API client.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:     opts.BaseURL,
		httpClient:  opts.HTTPClient,
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		userAgent:   opts.UserAgent,
		backoff:     initialBackoff,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: requestTimeout}
	}
	if opts.RequestsPerSecond > 0 {
		c.rateLimiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	if c.userAgent == "" {
		c.userAgent = "mtg-deck-advisor/1.0"
	}
	return c
}

// GetCard retrieves a card by its Scryfall ID.
func (c *Client) GetCard(ctx context.Context, id string) (*Card, error) {
	endpoint := fmt.Sprintf("%s/cards/%s", c.baseURL, url.PathEscape(id))

	var card Card
	if err := c.doRequest(ctx, endpoint, &card); err != nil {
		return nil, fmt.Errorf("failed to get card %s: %w", id, err)
	}

	return &card, nil
}

// GetCardByName retrieves a card by its exact name.
func (c *Client) GetCardByName(ctx context.Context, name string) (*Card, error) {
	endpoint := fmt.Sprintf("%s/cards/named?exact=%s", c.baseURL, url.QueryEscape(name))

	var card Card
	if err := c.doRequest(ctx, endpoint, &card); err != nil {
		return nil, fmt.Errorf("failed to get card %q: %w", name, err)
	}

	return &card, nil
}

// doRequest performs an HTTP request with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, endpoint string, result any) error {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		retry, err := c.attempt(ctx, endpoint, result)
		if err == nil {
			return nil
		}
		lastErr = err
		if retry.after < 0 || attempt == maxRetries {
			return lastErr
		}

		wait := backoff
		if retry.after > 0 {
			wait = retry.after
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
		backoff = min(backoff*2, maxBackoff)
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// retryHint tells doRequest whether to retry: after < 0 means give up,
// 0 means use the backoff, > 0 is a server-provided delay.
type retryHint struct {
	after time.Duration
}

var noRetry = retryHint{after: -1}

func (c *Client) attempt(ctx context.Context, endpoint string, result any) (retryHint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return noRetry, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return noRetry, ctx.Err()
		}
		return retryHint{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return retryHint{}, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.Unmarshal(body, result); err != nil {
			return noRetry, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		return retryHint{}, nil

	case resp.StatusCode == http.StatusNotFound:
		return noRetry, &NotFoundError{URL: endpoint}

	case resp.StatusCode == http.StatusTooManyRequests:
		hint := retryHint{}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			hint.after = time.Duration(secs) * time.Second
		}
		return hint, fmt.Errorf("rate limited (HTTP 429)")

	case resp.StatusCode >= 500:
		return retryHint{}, fmt.Errorf("server error (HTTP %d)", resp.StatusCode)

	default:
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Status != 0 {
			return noRetry, &apiErr
		}
		return noRetry, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
