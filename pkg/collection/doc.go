// Package collection implements a lazy pull iterator over paginated
// collection endpoints of a remote HTTP API.
//
// A collection endpoint returns its first page embedded in the initial
// response; further pages are fetched on demand through a caller-supplied
// Transport. The response body carries no protocol tag, so the iterator
// classifies the pagination strategy from the body's shape:
//
//   - offset/limit pagination with an optional total_count
//   - opaque marker pagination via next_marker
//   - unrecognized shapes, treated as a single complete page
//
// Event-stream collections (next_stream_position + chunk_size) use a
// different continuation protocol and are rejected at construction.
//
// # Basic Usage
//
//	resp, err := tr.Get(ctx, "https://api.example.com/folders/0/items", collection.RequestOptions{})
//	if err != nil {
//		return err
//	}
//
//	it, err := collection.New(resp, tr, logging.NewLogger("collection"))
//	if err != nil {
//		return err
//	}
//	defer it.Close()
//
//	for entry, err := range it.All(ctx) {
//		if err != nil {
//			return err
//		}
//		// process entry (json.RawMessage)
//	}
//
// Or pull one entry at a time:
//
//	entry, err := it.Next(ctx)
//	if err == collection.ErrDone {
//		// collection exhausted
//	}
//
// # Ordering
//
// Every Next call is queued onto a single worker, so calls issued
// concurrently resolve in the order they were enqueued and at most one
// continuation fetch runs per page boundary. The iterator holds one
// forward cursor; it does not support concurrent multi-cursor or
// reverse iteration.
//
// # Checkpointing
//
// NextCursor returns the current cursor at any time. The value is
// JSON-serializable and can be persisted with pkg/checkpoint to resume
// iteration in a later process.
//
// # Errors
//
// Failed continuation fetches (transport errors or non-200 statuses)
// fail only the pull that triggered them; the iterator state is
// untouched and the next pull re-attempts the fetch. The package never
// retries on its own: retry, backoff, and timeout policy belong to the
// Transport implementation (see pkg/transport).
package collection
