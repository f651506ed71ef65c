package collection

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// continuation builds the transport options for the next page fetch
// from the origin request snapshot and the current pagination state.
// The origin is cloned, never mutated.
func continuation(origin Request, s pageState) RequestOptions {
	headers := origin.Header.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	// Authorization is re-derived by the transport, not carried forward.
	headers.Del("Authorization")

	if origin.Method == http.MethodPost {
		body := make(map[string]any, len(origin.Body)+2)
		for k, v := range origin.Body {
			body[k] = v
		}
		if s.hasLimit {
			body["limit"] = s.limit
		}
		setCursorParam(body, s.cursor)

		// Content-Length must reflect the mutated body, not the original.
		payload, err := json.Marshal(body)
		if err == nil {
			headers.Set("Content-Length", strconv.Itoa(len(payload)))
		}

		return RequestOptions{Headers: headers, Body: body}
	}

	query := make(url.Values, len(origin.Query)+2)
	for k, vs := range origin.Query {
		query[k] = append([]string(nil), vs...)
	}
	if s.hasLimit {
		query.Set("limit", strconv.Itoa(s.limit))
	}
	switch s.cursor.Strategy {
	case StrategyOffset:
		query.Set(s.cursor.field(), strconv.Itoa(s.cursor.Offset))
	default:
		query.Set(s.cursor.field(), s.cursor.Marker)
	}

	return RequestOptions{Headers: headers, Query: query}
}

// setCursorParam writes the cursor into a POST continuation body.
func setCursorParam(body map[string]any, c Cursor) {
	if c.Strategy == StrategyOffset {
		body[c.field()] = c.Offset
		return
	}
	body[c.field()] = c.Marker
}
