package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for iterator operations.
var (
	pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collection_pages_fetched_total",
		Help: "Total continuation pages fetched by strategy",
	}, []string{"strategy"})

	entriesYieldedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collection_entries_yielded_total",
		Help: "Total collection entries delivered to consumers",
	})

	fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collection_fetch_errors_total",
		Help: "Total failed continuation fetches by reason",
	}, []string{"reason"}) // "transport", "status", "decode"
)

// pull is one queued Next call.
type pull struct {
	ctx   context.Context
	reply chan result
}

// result is the settled outcome of a pull.
type result struct {
	entry json.RawMessage
	err   error
}

// Iterator lazily walks a paginated collection, one entry at a time.
//
// All pulls are funneled through a single worker goroutine via an
// ordered queue: overlapping Next calls resolve strictly first-in
// first-out, and at most one continuation fetch is in flight per page
// boundary. The queue is the mutual-exclusion mechanism over the buffer
// and pagination state; neither is touched outside the worker.
type Iterator struct {
	transport Transport
	origin    Request
	logger    zerolog.Logger

	pulls  chan pull
	closed chan struct{}
	once   sync.Once

	// worker-owned, never accessed outside the worker goroutine
	state  pageState
	buffer []json.RawMessage

	// cursor snapshot for NextCursor, updated by the worker after each
	// settled transition
	mu     sync.Mutex
	cursor Cursor
}

// New classifies an initial collection response and returns an iterator
// over it. It fails with ErrNotCollection if the response is not a
// recognizable paginated collection (no entries sequence, a non-GET/POST
// originating request, or an event-stream shape).
func New(resp *Response, tr Transport, logger zerolog.Logger) (*Iterator, error) {
	if tr == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: response is nil", ErrNotCollection)
	}

	shape := Classify(resp.Request.Method, resp.Body)
	switch shape {
	case ShapeOffset, ShapeMarker, ShapeUnknown:
	default:
		return nil, fmt.Errorf("%w (shape %s)", ErrNotCollection, shape)
	}

	// Classification above guarantees the body decodes.
	page, err := decodePage(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotCollection, err)
	}

	state := deriveState(page)

	it := &Iterator{
		transport: tr,
		origin:    resp.Request,
		logger:    logger,
		pulls:     make(chan pull),
		closed:    make(chan struct{}),
		state:     state,
		buffer:    page.Entries,
		cursor:    state.cursor,
	}

	it.logger.Debug().
		Str("strategy", string(state.strategy)).
		Int("entries", len(page.Entries)).
		Bool("done", state.done).
		Msg("Iterator created")

	go it.run()

	return it, nil
}

// Next returns the next entry of the collection. Once the collection is
// exhausted it returns ErrDone indefinitely without network activity.
//
// A failed continuation fetch is returned as the error of the pull that
// triggered it; pagination state and buffer are untouched, so a later
// Next re-attempts the fetch. No entry is ever lost or duplicated by a
// failed fetch.
func (it *Iterator) Next(ctx context.Context) (json.RawMessage, error) {
	p := pull{ctx: ctx, reply: make(chan result, 1)}

	select {
	case it.pulls <- p:
	case <-it.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Once enqueued, always wait for the worker's reply so no entry is
	// popped without being delivered. Cancellation reaches an in-flight
	// fetch through the pull's context.
	res := <-p.reply
	return res.entry, res.err
}

// All returns an iterator over every remaining entry. Iteration stops
// at the first error; exhaustion is not surfaced as an error.
func (it *Iterator) All(ctx context.Context) iter.Seq2[json.RawMessage, error] {
	return func(yield func(json.RawMessage, error) bool) {
		for {
			entry, err := it.Next(ctx)
			if err == ErrDone {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// NextCursor returns the current cursor, usable to resume iteration
// externally later (see pkg/checkpoint). Safe to call at any time from
// any goroutine; while a fetch is in flight it reports the last settled
// cursor. No side effects.
func (it *Iterator) NextCursor() Cursor {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.cursor
}

// Close stops the worker goroutine. Pulls already being served settle
// normally; later Next calls fail with ErrClosed. Safe to call more
// than once.
func (it *Iterator) Close() error {
	it.once.Do(func() { close(it.closed) })
	return nil
}

// run is the single worker: it serves queued pulls strictly in order.
func (it *Iterator) run() {
	for {
		select {
		case p := <-it.pulls:
			it.serve(p)
		case <-it.closed:
			return
		}
	}
}

// serve settles one pull: drain the buffer, report exhaustion, or fetch
// the next page and retry. An empty page that is not yet terminal loops
// transparently into the following fetch instead of surfacing an empty
// result.
func (it *Iterator) serve(p pull) {
	for {
		if len(it.buffer) > 0 {
			entry := it.buffer[0]
			it.buffer = it.buffer[1:]
			entriesYieldedTotal.Inc()
			p.reply <- result{entry: entry}
			return
		}

		if it.state.done {
			p.reply <- result{err: ErrDone}
			return
		}

		if err := p.ctx.Err(); err != nil {
			p.reply <- result{err: err}
			return
		}

		if err := it.fetch(p.ctx); err != nil {
			p.reply <- result{err: err}
			return
		}
	}
}

// fetch issues exactly one continuation request and folds the new page
// into the pagination state and buffer. On any failure the state and
// buffer are left unchanged.
func (it *Iterator) fetch(ctx context.Context) error {
	opts := continuation(it.origin, it.state)

	var resp *Response
	var err error
	if it.origin.Method == http.MethodPost {
		resp, err = it.transport.Post(ctx, it.origin.URL, opts)
	} else {
		resp, err = it.transport.Get(ctx, it.origin.URL, opts)
	}
	if err != nil {
		fetchErrorsTotal.WithLabelValues("transport").Inc()
		it.logger.Warn().
			Err(err).
			Str("url", it.origin.URL).
			Msg("Continuation fetch failed")
		return err
	}

	if resp.StatusCode != http.StatusOK {
		fetchErrorsTotal.WithLabelValues("status").Inc()
		it.logger.Warn().
			Int("status", resp.StatusCode).
			Str("url", it.origin.URL).
			Msg("Continuation fetch returned unexpected status")
		return &StatusError{
			StatusCode: resp.StatusCode,
			Method:     it.origin.Method,
			URL:        it.origin.URL,
		}
	}

	page, err := decodePage(resp.Body)
	if err != nil {
		fetchErrorsTotal.WithLabelValues("decode").Inc()
		return fmt.Errorf("decode continuation page: %w", err)
	}

	it.state.fold(page)
	it.buffer = page.Entries

	it.mu.Lock()
	it.cursor = it.state.cursor
	it.mu.Unlock()

	pagesFetchedTotal.WithLabelValues(string(it.state.strategy)).Inc()
	it.logger.Debug().
		Str("strategy", string(it.state.strategy)).
		Int("entries", len(page.Entries)).
		Bool("done", it.state.done).
		Msg("Fetched continuation page")

	return nil
}
