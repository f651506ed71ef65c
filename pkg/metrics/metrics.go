// Package metrics provides the centralized Prometheus registry for the
// paged collection client. All metrics are defined in their respective
// packages (collection, transport, ratelimit, checkpoint) to maintain
// modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Iterator Metrics (pkg/collection):
//   - collection_pages_fetched_total{strategy} (Counter): Continuation pages fetched by strategy
//   - collection_entries_yielded_total (Counter): Entries delivered to consumers
//   - collection_fetch_errors_total{reason} (Counter): Failed continuation fetches (transport, status, decode)
//
// Transport Metrics (pkg/transport):
//   - collection_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - collection_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - collection_request_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//   - collection_request_retries_total{error_class} (Counter): Retry attempts by error class
//   - collection_request_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - collection_request_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Rate Limit Metrics (pkg/ratelimit):
//   - collection_rate_limit_remaining (Gauge): Request budget remaining in current window
//   - collection_rate_limit_blocks_total (Counter): Requests blocked due to critical budget
//   - collection_rate_limit_throttles_total (Counter): Requests throttled due to low budget
//
// Checkpoint Metrics (pkg/checkpoint):
//   - collection_checkpoint_operations_total{backend, operation} (Counter): Checkpoint operations
//   - collection_checkpoint_errors_total{backend, operation} (Counter): Checkpoint operation errors
//
// Example Prometheus Queries:
//
//   # Entries throughput
//   rate(collection_entries_yielded_total[5m])
//
//   # Fetch error rate by reason
//   rate(collection_fetch_errors_total[5m])
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(collection_request_duration_seconds_bucket[5m]))
//
//   # Rate limit budget status
//   collection_rate_limit_remaining < 20
