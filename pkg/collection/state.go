package collection

// Strategy identifies the continuation semantics of a collection.
type Strategy string

const (
	// StrategyOffset paginates via a numeric offset/limit pair with an
	// optional total count.
	StrategyOffset Strategy = "offset"

	// StrategyMarker paginates via an opaque server-issued marker token.
	StrategyMarker Strategy = "marker"

	// StrategyUnknown is the conservative default for unrecognized
	// shapes: a single, already-complete page.
	StrategyUnknown Strategy = "unknown"
)

// Cursor is the value needed to request the next page of a collection.
// It is JSON-serializable so callers can checkpoint it externally and
// resume iteration later (see pkg/checkpoint).
type Cursor struct {
	Strategy Strategy `json:"strategy"`

	// Offset is the next offset to request. Meaningful for StrategyOffset.
	Offset int `json:"offset,omitempty"`

	// Marker is the next marker token. Meaningful for StrategyMarker.
	Marker string `json:"marker,omitempty"`

	// Valid is false once no further page exists.
	Valid bool `json:"valid"`
}

// field returns the continuation parameter name for this cursor.
func (c Cursor) field() string {
	if c.Strategy == StrategyOffset {
		return "offset"
	}
	return "marker"
}

// pageState is the derived pagination state of one iterator. It is
// owned by the iterator's worker goroutine; no other goroutine reads or
// writes it.
type pageState struct {
	strategy Strategy
	cursor   Cursor

	// limit is the page size reported by the initial response, carried
	// unchanged across pages.
	limit    int
	hasLimit bool

	// done is monotone: once true, no further fetch is ever attempted.
	done bool
}

// deriveState computes the initial pagination state from the first page
// of a collection. The page must already have classified as iterable.
func deriveState(p *page) pageState {
	s := pageState{}
	if p.Limit != nil {
		s.limit = *p.Limit
		s.hasLimit = true
	}

	switch p.shape() {
	case ShapeOffset:
		s.strategy = StrategyOffset
		next := *p.Offset + len(p.Entries)
		s.done = p.TotalCount != nil && next >= *p.TotalCount
		s.cursor = Cursor{Strategy: StrategyOffset, Offset: next, Valid: !s.done}

	case ShapeMarker:
		s.strategy = StrategyMarker
		marker := *p.NextMarker
		s.done = marker == ""
		s.cursor = Cursor{Strategy: StrategyMarker, Marker: marker, Valid: !s.done}

	default:
		// Unrecognized shape: a single complete page, so buffered
		// entries stay consumable but no fetch is ever issued.
		s.strategy = StrategyUnknown
		s.done = true
		s.cursor = Cursor{Strategy: StrategyUnknown, Valid: false}
	}

	return s
}

// fold advances the state with a freshly fetched continuation page.
// Only called while done is false, inside the worker goroutine.
func (s *pageState) fold(p *page) {
	switch s.strategy {
	case StrategyOffset:
		// The offset of this response, not the previous one, anchors
		// the next cursor.
		offset := s.cursor.Offset
		if p.Offset != nil {
			offset = *p.Offset
		}
		next := offset + len(p.Entries)

		switch {
		case p.TotalCount != nil:
			s.done = next >= *p.TotalCount
		case len(p.Entries) == 0:
			// No total count to compare against: a zero-entry page is
			// the terminal signal, independent of the computed offset.
			s.done = true
		}
		s.cursor = Cursor{Strategy: StrategyOffset, Offset: next, Valid: !s.done}

	case StrategyMarker:
		marker := ""
		if p.NextMarker != nil {
			marker = *p.NextMarker
		}
		s.done = marker == ""
		s.cursor = Cursor{Strategy: StrategyMarker, Marker: marker, Valid: !s.done}

	default:
		s.done = true
		s.cursor.Valid = false
	}
}
