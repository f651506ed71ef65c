package collection

import (
	"context"
	"net/http"
	"net/url"
)

// Transport is the capability the iterator needs to fetch continuation
// pages. Implementations own timeout, retry, and backoff policy; the
// iterator never retries on its own.
//
// pkg/transport provides a production implementation; tests supply fakes.
type Transport interface {
	// Get fetches a page via HTTP GET. opts.Query carries the pagination
	// parameters; opts.Body is ignored.
	Get(ctx context.Context, url string, opts RequestOptions) (*Response, error)

	// Post fetches a page via HTTP POST with a JSON body built from
	// opts.Body; opts.Query is ignored.
	Post(ctx context.Context, url string, opts RequestOptions) (*Response, error)
}

// RequestOptions are the per-request parameters handed to a Transport.
type RequestOptions struct {
	Headers http.Header
	Query   url.Values
	Body    map[string]any
}

// Request is an immutable snapshot of the request that produced a
// collection response: the base URL without query string, the method,
// and the original headers and parameters. The iterator clones it for
// every continuation fetch and never mutates it.
type Request struct {
	// Method is the HTTP method, "GET" or "POST".
	Method string

	// URL is the target URL without a query string.
	URL string

	// Header holds the original request headers.
	Header http.Header

	// Query holds the original query parameters (GET requests).
	Query url.Values

	// Body holds the original body parameters (POST requests).
	Body map[string]any
}

// Response is a collection endpoint response together with the request
// snapshot that produced it.
type Response struct {
	Request    Request
	StatusCode int
	Body       []byte
}
