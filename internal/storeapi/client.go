package storeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/UnknownOlympus/storelens/internal/models"
	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public fake store API.
const DefaultBaseURL = "https://fakestoreapi.com"

// DefaultTimeout is used when GetData is called without a positive timeout.
const DefaultTimeout = 5 * time.Second

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Common errors for the store API client.
var (
	ErrRequestTimeout = errors.New("store API request timed out")
	ErrFetchFailed    = errors.New("store API request failed")
)

// Client fetches collections from the store REST API.
type Client struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL of the store API, without trailing slash
	timeout time.Duration // Default per-request timeout
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// NewClient creates a store API client. A non-positive timeout falls back to
// DefaultTimeout and a non-positive rate limit disables rate limiting.
func NewClient(baseURL string, timeout time.Duration, rateLimit int, log *slog.Logger) *Client {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(rateLimit), rateLimit)
	}

	// The per-request deadline is enforced through the request context.
	return NewClientWithHTTPClient(&http.Client{}, baseURL, timeout, limiter, log)
}

// NewClientWithHTTPClient allows injecting custom HTTP client and limiter.
func NewClientWithHTTPClient(
	client HTTPClient,
	baseURL string,
	timeout time.Duration,
	limiter *rate.Limiter,
	log *slog.Logger,
) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		log:     log,
		limiter: limiter,
	}
}

// Users fetches all users.
func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.GetData(ctx, c.baseURL+"/users", 0, &users); err != nil {
		return nil, err
	}

	return users, nil
}

// Products fetches all products.
func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.GetData(ctx, c.baseURL+"/products", 0, &products); err != nil {
		return nil, err
	}

	return products, nil
}

// Carts fetches all carts in the date range of the filter.
func (c *Client) Carts(ctx context.Context, filter CartFilter) ([]models.Cart, error) {
	query := url.Values{}
	if filter.StartDate != "" {
		query.Set("startdate", filter.StartDate)
	}
	if filter.EndDate != "" {
		query.Set("enddate", filter.EndDate)
	}

	reqURL := c.baseURL + "/carts"
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var carts []models.Cart
	if err := c.GetData(ctx, reqURL, 0, &carts); err != nil {
		return nil, err
	}

	return carts, nil
}

// GetData performs a GET request to rawURL and decodes the JSON body into out.
// If no response arrives within timeout the request is cancelled and
// ErrRequestTimeout is returned; a non-positive timeout uses the client default.
// Every other failure is wrapped in ErrFetchFailed with the cause kept in the chain.
func (c *Client) GetData(ctx context.Context, rawURL string, timeout time.Duration, out any) error {
	if timeout <= 0 {
		timeout = c.timeout
	}

	reqURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: failed to parse URL: %w", ErrFetchFailed, err)
	}
	if reqURL.Scheme == "" || reqURL.Host == "" {
		return fmt.Errorf("%w: invalid URL %q", ErrFetchFailed, rawURL)
	}

	if err = c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit exceeded: %w", ErrFetchFailed, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.log.DebugContext(ctx, "Store API request", "url", reqURL.String(), "timeout", timeout)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", ErrFetchFailed, err)
	}
	setBrowserHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return c.failure(ctx, reqCtx, "failed to execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		c.log.ErrorContext(ctx, "Store API error", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("%w: store API returned status %d: %s", ErrFetchFailed, resp.StatusCode, string(body))
	}

	body, err := decodedBody(resp)
	if err != nil {
		return c.failure(ctx, reqCtx, "failed to read response body", err)
	}
	defer body.Close()

	if err = json.NewDecoder(body).Decode(out); err != nil {
		return c.failure(ctx, reqCtx, "failed to decode response", err)
	}

	return nil
}

// failure classifies an error raised while the request context was live.
func (c *Client) failure(ctx, reqCtx context.Context, msg string, err error) error {
	if ctx.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		c.log.WarnContext(ctx, "Store API request timed out", "error", err)
		return fmt.Errorf("%w: %w", ErrRequestTimeout, err)
	}

	return fmt.Errorf("%w: %s: %w", ErrFetchFailed, msg, err)
}

// setBrowserHeaders sets the static header set of a desktop Firefox.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Accept-Language", "pl,en-US;q=0.7,en;q=0.3")
	req.Header.Set("Alt-Used", req.URL.Host)
	req.Header.Set("Connection", "keep-alive")
	req.Host = req.URL.Host
	req.Header.Set("Host", req.URL.Host)
}

// decodedBody undoes the content encoding. Setting Accept-Encoding manually
// disables the transparent gzip support of net/http.
func decodedBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return io.NopCloser(resp.Body), nil
	case "gzip":
		reader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read gzip body: %w", err)
		}
		return reader, nil
	case "deflate":
		reader, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read deflate body: %w", err)
		}
		return reader, nil
	case "br":
		return io.NopCloser(brotli.NewReader(resp.Body)), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
}
