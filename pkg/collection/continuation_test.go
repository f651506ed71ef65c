package collection

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContinuation_Get(t *testing.T) {
	origin := Request{
		Method: http.MethodGet,
		URL:    "https://api.example.com/v1/items",
		Header: http.Header{
			"Authorization": []string{"Bearer secret"},
			"X-Request-Id":  []string{"abc"},
		},
		Query: url.Values{
			"fields": []string{"id", "name"},
			"limit":  []string{"25"},
			"marker": []string{"stale"},
		},
	}
	state := pageState{
		strategy: StrategyMarker,
		cursor:   Cursor{Strategy: StrategyMarker, Marker: "m2", Valid: true},
		limit:    100,
		hasLimit: true,
	}

	opts := continuation(origin, state)

	// Cursor and limit overwrite any caller-supplied values.
	assert.Equal(t, "m2", opts.Query.Get("marker"))
	assert.Equal(t, "100", opts.Query.Get("limit"))
	assert.Equal(t, []string{"id", "name"}, opts.Query["fields"])

	assert.Empty(t, opts.Headers.Get("Authorization"))
	assert.Equal(t, "abc", opts.Headers.Get("X-Request-Id"))

	// Origin snapshot stays untouched.
	assert.Equal(t, "stale", origin.Query.Get("marker"))
	assert.Equal(t, "Bearer secret", origin.Header.Get("Authorization"))
}

func TestContinuation_GetOffset(t *testing.T) {
	origin := Request{
		Method: http.MethodGet,
		URL:    "https://api.example.com/v1/items",
		Query:  url.Values{},
	}
	state := pageState{
		strategy: StrategyOffset,
		cursor:   Cursor{Strategy: StrategyOffset, Offset: 200, Valid: true},
		limit:    50,
		hasLimit: true,
	}

	opts := continuation(origin, state)

	assert.Equal(t, "200", opts.Query.Get("offset"))
	assert.Equal(t, "50", opts.Query.Get("limit"))
	assert.Empty(t, opts.Query.Get("marker"))
}

func TestContinuation_GetWithoutLimit(t *testing.T) {
	origin := Request{Method: http.MethodGet, URL: "https://api.example.com/v1/items"}
	state := pageState{
		strategy: StrategyMarker,
		cursor:   Cursor{Strategy: StrategyMarker, Marker: "m2", Valid: true},
	}

	opts := continuation(origin, state)

	assert.Equal(t, "m2", opts.Query.Get("marker"))
	_, present := opts.Query["limit"]
	assert.False(t, present)
}

func TestContinuation_Post(t *testing.T) {
	origin := Request{
		Method: http.MethodPost,
		URL:    "https://api.example.com/v1/search",
		Header: http.Header{
			"Authorization":  []string{"Bearer secret"},
			"Content-Length": []string{"17"},
		},
		Query: url.Values{"trace": []string{"1"}},
		Body:  map[string]any{"query": "report", "marker": "stale"},
	}
	state := pageState{
		strategy: StrategyMarker,
		cursor:   Cursor{Strategy: StrategyMarker, Marker: "m2", Valid: true},
		limit:    30,
		hasLimit: true,
	}

	opts := continuation(origin, state)

	assert.Equal(t, "m2", opts.Body["marker"])
	assert.Equal(t, 30, opts.Body["limit"])
	assert.Equal(t, "report", opts.Body["query"])

	// The continuation targets the endpoint itself; query parameters do
	// not carry over for POST collections.
	assert.Empty(t, opts.Query)

	payload, err := json.Marshal(opts.Body)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(len(payload)), opts.Headers.Get("Content-Length"))

	assert.Empty(t, opts.Headers.Get("Authorization"))

	// Origin body stays untouched.
	assert.Equal(t, "stale", origin.Body["marker"])
	_, present := origin.Body["limit"]
	assert.False(t, present)
}

func TestContinuation_PostOffset(t *testing.T) {
	origin := Request{
		Method: http.MethodPost,
		URL:    "https://api.example.com/v1/search",
		Body:   map[string]any{"query": "report"},
	}
	state := pageState{
		strategy: StrategyOffset,
		cursor:   Cursor{Strategy: StrategyOffset, Offset: 40, Valid: true},
		limit:    20,
		hasLimit: true,
	}

	opts := continuation(origin, state)

	assert.Equal(t, 40, opts.Body["offset"])
	assert.Equal(t, 20, opts.Body["limit"])
	_, present := opts.Body["marker"]
	assert.False(t, present)
}
