// Package transport provides the production HTTP transport behind the
// collection iterator, with rate limiting, retry, and error handling.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/restlab/paged-collection-client/pkg/collection"
	"github.com/restlab/paged-collection-client/pkg/ratelimit"
)

// Prometheus metrics for transport operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collection_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "collection_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collection_request_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 rate limit errors.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Client is an HTTP transport for paginated collection endpoints. It
// implements collection.Transport and owns all retry, backoff, and
// timeout policy; the iterator core never retries on its own.
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.Tracker
	config      Config
	logger      zerolog.Logger
}

// Config holds the transport configuration.
type Config struct {
	// User-Agent header sent on every request (required).
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// Redis client for shared rate limit state. Optional: when nil, no
	// rate limit gating is applied.
	Redis *redis.Client

	// Timeout per HTTP request.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
	}
}

// New creates a new transport client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "transport").Logger()

	var rateLimiter *ratelimit.Tracker
	if cfg.Redis != nil {
		rateLimiter = ratelimit.NewTracker(cfg.Redis, logger)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: rateLimiter,
		config:      cfg,
		logger:      logger,
	}, nil
}

// Get performs a GET request with opts.Query as the query string.
func (c *Client) Get(ctx context.Context, rawURL string, opts collection.RequestOptions) (*collection.Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, opts)
}

// Post performs a POST request with a JSON body built from opts.Body.
func (c *Client) Post(ctx context.Context, rawURL string, opts collection.RequestOptions) (*collection.Response, error) {
	return c.do(ctx, http.MethodPost, rawURL, opts)
}

// do performs an HTTP request with rate limiting, retries, and error
// classification, and packages the result with its request snapshot.
func (c *Client) do(ctx context.Context, method, rawURL string, opts collection.RequestOptions) (*collection.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	// Query parameters may arrive on the URL itself (initial requests)
	// or in opts (continuations); opts wins per key.
	query := u.Query()
	for k, vs := range opts.Query {
		query[k] = append([]string(nil), vs...)
	}

	base := *u
	base.RawQuery = ""
	base.Fragment = ""
	endpoint := u.Path

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check rate limit
	if c.rateLimiter != nil {
		allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Error().Err(err).Msg("Rate limit check failed")
			return nil, fmt.Errorf("rate limit check: %w", err)
		}
		if !allowed {
			c.logger.Warn().
				Str("endpoint", endpoint).
				Msg("Request blocked by rate limiter")
			requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
			return nil, ErrRateLimited
		}
	}

	// Step 2: Assemble headers and body
	headers := http.Header{}
	if opts.Headers != nil {
		headers = opts.Headers.Clone()
	}
	headers.Set("User-Agent", c.config.UserAgent)
	headers.Set("Accept", "application/json")

	var payload []byte
	if method == http.MethodPost {
		payload, err = json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		headers.Set("Content-Type", "application/json")
	}

	reqURL := base.String()
	if method == http.MethodGet && len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Msg("Executing API request")

	// Step 3: Execute with retry logic
	var resp *http.Response
	retryErr := retryWithBackoff(ctx, func() error {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header = headers.Clone()

		resp, err = c.httpClient.Do(req)
		if err != nil {
			c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return err
		}

		// Update rate limit budget from headers
		if c.rateLimiter != nil {
			if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
			}
		}

		if resp.StatusCode >= 400 {
			errClass := classifyStatus(resp.StatusCode)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("API request error")

			if shouldRetry(errClass) {
				resp.Body.Close() // Close the body before retrying
				return &APIError{
					StatusCode: resp.StatusCode,
					ErrorClass: errClass,
					Message:    resp.Status,
				}
			}

			// Don't retry client errors - surface the status to the caller
			return nil
		}

		requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		return nil
	}, classifyError)

	if retryErr != nil {
		return nil, retryErr
	}

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	snapshot := collection.Request{
		Method: method,
		URL:    base.String(),
		Header: headers.Clone(),
	}
	if method == http.MethodPost {
		snapshot.Body = opts.Body
	} else {
		snapshot.Query = query
	}

	return &collection.Response{
		Request:    snapshot,
		StatusCode: resp.StatusCode,
		Body:       data,
	}, nil
}

// classifyStatus categorizes an HTTP status code.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// classifyError categorizes an error for retry decisions.
func classifyError(err error) ErrorClass {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.ErrorClass
	}
	return ErrorClassNetwork
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
