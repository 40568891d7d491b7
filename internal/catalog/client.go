package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ecommerce-price-tracker/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultBackoffMult = 2.0
	DefaultUserAgent   = "ecommerce-price-tracker/1.0"

	maxBodyBytes = 8 << 20
)

// ErrUnexpectedStatus is wrapped by UpstreamFetchError for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client fetches the product catalog over HTTP.
type Client struct {
	url         string
	client      *http.Client
	userAgent   string
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts. Negative values mean no retries.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = max(n, 0)
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a catalog client for the products endpoint at url.
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:         url,
		client:      &http.Client{Timeout: DefaultTimeout},
		userAgent:   DefaultUserAgent,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ Fetcher = (*Client)(nil)

// item is one entry of the products payload.
type item struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Rating      struct {
		Rate  float64 `json:"rate"`
		Count int     `json:"count"`
	} `json:"rating"`
}

// FetchAll downloads the whole catalog. Transport errors and 5xx/429 responses
// are retried with exponential backoff; other non-2xx responses fail at once.
// Every failure is returned as *UpstreamFetchError.
func (c *Client) FetchAll(ctx context.Context) ([]domain.ProductDescriptor, error) {
	delay := c.retryDelay
	var lastErr *UpstreamFetchError

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &UpstreamFetchError{URL: c.url, Err: ctx.Err()}
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		items, retry, err := c.fetchOnce(ctx)
		if err == nil {
			return toDescriptors(items), nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context) ([]item, bool, *UpstreamFetchError) {
	fail := func(status int, retry bool, err error) ([]item, bool, *UpstreamFetchError) {
		return nil, retry, &UpstreamFetchError{URL: c.url, StatusCode: status, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fail(0, false, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fail(0, true, fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail(resp.StatusCode, true, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		retry := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return fail(resp.StatusCode, retry, fmt.Errorf("%w: %s", ErrUnexpectedStatus, truncate(body, 256)))
	}

	var items []item
	if err := json.Unmarshal(body, &items); err != nil {
		return fail(resp.StatusCode, false, fmt.Errorf("decode products: %w", err))
	}
	return items, false, nil
}

func toDescriptors(items []item) []domain.ProductDescriptor {
	out := make([]domain.ProductDescriptor, 0, len(items))
	for _, it := range items {
		out = append(out, domain.ProductDescriptor{
			ExternalID:  it.ID,
			Title:       it.Title,
			Description: it.Description,
			BasePrice:   it.Price,
			Rating:      it.Rating.Rate,
		})
	}
	return out
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
