package collection

import (
	"encoding/json"
	"net/http"
)

// Shape classifies the pagination protocol implied by a response body.
// Responses carry no explicit protocol tag, so classification is purely
// field-presence based; every heuristic lives in this file.
type Shape int

const (
	// ShapeNotCollection means the body is not a paginated collection at
	// all (no entries sequence, or a non-GET/POST originating request).
	ShapeNotCollection Shape = iota

	// ShapeEventStream means the body is an event-stream collection
	// (stream-position cursor plus chunk size). Those use a different
	// continuation protocol and are excluded from iteration.
	ShapeEventStream

	// ShapeOffset means offset/limit pagination with an optional total count.
	ShapeOffset

	// ShapeMarker means opaque marker pagination via next_marker.
	ShapeMarker

	// ShapeUnknown means the body has an entries sequence but no
	// recognizable continuation fields. Treated as a single,
	// already-complete page.
	ShapeUnknown
)

// String returns the shape name for logging.
func (s Shape) String() string {
	switch s {
	case ShapeEventStream:
		return "event_stream"
	case ShapeOffset:
		return "offset"
	case ShapeMarker:
		return "marker"
	case ShapeUnknown:
		return "unknown"
	default:
		return "not_collection"
	}
}

// page is the decoded pagination envelope of a collection response.
// Pointer fields distinguish absent from zero-valued; nothing beyond
// presence is ever validated.
type page struct {
	Entries            []json.RawMessage `json:"entries"`
	Limit              *int              `json:"limit"`
	Offset             *int              `json:"offset"`
	TotalCount         *int              `json:"total_count"`
	NextMarker         *string           `json:"next_marker"`
	NextStreamPosition *json.Number      `json:"next_stream_position"`
	ChunkSize          *int              `json:"chunk_size"`

	// hasEntries records whether the entries field was present and a
	// JSON array, which json.Unmarshal alone cannot distinguish from
	// an absent field.
	hasEntries bool
}

// UnmarshalJSON decodes the envelope and records entries presence.
func (p *page) UnmarshalJSON(data []byte) error {
	type alias page
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	var probe struct {
		Entries json.RawMessage `json:"entries"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	*p = page(a)
	p.hasEntries = len(probe.Entries) > 0 && probe.Entries[0] == '['
	return nil
}

// decodePage parses a response body into its pagination envelope.
func decodePage(body []byte) (*page, error) {
	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Classify inspects the originating request method and the response body
// and returns the pagination shape.
func Classify(method string, body []byte) Shape {
	if method != http.MethodGet && method != http.MethodPost {
		return ShapeNotCollection
	}

	p, err := decodePage(body)
	if err != nil || !p.hasEntries {
		return ShapeNotCollection
	}

	return p.shape()
}

// shape derives the pagination shape of an already-decoded page.
func (p *page) shape() Shape {
	if !p.hasEntries {
		return ShapeNotCollection
	}

	// Event streams carry a stream position cursor and a chunk size.
	if p.NextStreamPosition != nil && p.ChunkSize != nil {
		return ShapeEventStream
	}

	if p.Offset != nil && p.Limit != nil {
		return ShapeOffset
	}

	if p.NextMarker != nil {
		return ShapeMarker
	}

	return ShapeUnknown
}

// IsIterable reports whether a response can be iterated: the body must
// hold an entries sequence, the originating method must be GET or POST,
// and the body must not be shaped like an event-stream collection.
func IsIterable(resp *Response) bool {
	if resp == nil {
		return false
	}

	switch Classify(resp.Request.Method, resp.Body) {
	case ShapeOffset, ShapeMarker, ShapeUnknown:
		return true
	default:
		return false
	}
}
