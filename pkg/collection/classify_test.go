package collection

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		want   Shape
	}{
		{
			name:   "offset with total count",
			method: http.MethodGet,
			body:   `{"entries": [{"id": "1"}], "offset": 0, "limit": 100, "total_count": 250}`,
			want:   ShapeOffset,
		},
		{
			name:   "offset without total count",
			method: http.MethodGet,
			body:   `{"entries": [{"id": "1"}], "offset": 0, "limit": 100}`,
			want:   ShapeOffset,
		},
		{
			name:   "marker",
			method: http.MethodGet,
			body:   `{"entries": [{"id": "1"}], "next_marker": "abc", "limit": 100}`,
			want:   ShapeMarker,
		},
		{
			name:   "marker empty string still marker",
			method: http.MethodGet,
			body:   `{"entries": [], "next_marker": ""}`,
			want:   ShapeMarker,
		},
		{
			name:   "post collection",
			method: http.MethodPost,
			body:   `{"entries": [], "next_marker": "abc"}`,
			want:   ShapeMarker,
		},
		{
			name:   "entries only is unknown",
			method: http.MethodGet,
			body:   `{"entries": [{"id": "1"}]}`,
			want:   ShapeUnknown,
		},
		{
			name:   "event stream excluded",
			method: http.MethodGet,
			body:   `{"entries": [{"id": "1"}], "next_stream_position": 1152922976252290800, "chunk_size": 100}`,
			want:   ShapeEventStream,
		},
		{
			name:   "stream position alone is not an event stream",
			method: http.MethodGet,
			body:   `{"entries": [], "next_stream_position": 100, "next_marker": "m"}`,
			want:   ShapeMarker,
		},
		{
			name:   "no entries field",
			method: http.MethodGet,
			body:   `{"total_count": 5, "offset": 0, "limit": 10}`,
			want:   ShapeNotCollection,
		},
		{
			name:   "entries null",
			method: http.MethodGet,
			body:   `{"entries": null, "next_marker": "abc"}`,
			want:   ShapeNotCollection,
		},
		{
			name:   "entries not a sequence",
			method: http.MethodGet,
			body:   `{"entries": "nope"}`,
			want:   ShapeNotCollection,
		},
		{
			name:   "single resource body",
			method: http.MethodGet,
			body:   `{"id": "123", "type": "file", "name": "report.pdf"}`,
			want:   ShapeNotCollection,
		},
		{
			name:   "invalid json",
			method: http.MethodGet,
			body:   `{"entries": [`,
			want:   ShapeNotCollection,
		},
		{
			name:   "empty body",
			method: http.MethodGet,
			body:   "",
			want:   ShapeNotCollection,
		},
		{
			name:   "delete method never iterable",
			method: http.MethodDelete,
			body:   `{"entries": [], "next_marker": "abc"}`,
			want:   ShapeNotCollection,
		},
		{
			name:   "put method never iterable",
			method: http.MethodPut,
			body:   `{"entries": [], "offset": 0, "limit": 10}`,
			want:   ShapeNotCollection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.method, []byte(tt.body)))
		})
	}
}

func TestIsIterable(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
		want bool
	}{
		{
			name: "nil response",
			resp: nil,
			want: false,
		},
		{
			name: "marker collection",
			resp: &Response{
				Request: Request{Method: http.MethodGet},
				Body:    []byte(`{"entries": [], "next_marker": "m"}`),
			},
			want: true,
		},
		{
			name: "unknown shape still iterable",
			resp: &Response{
				Request: Request{Method: http.MethodPost},
				Body:    []byte(`{"entries": [{"id": "1"}]}`),
			},
			want: true,
		},
		{
			name: "event stream",
			resp: &Response{
				Request: Request{Method: http.MethodGet},
				Body:    []byte(`{"entries": [], "next_stream_position": 0, "chunk_size": 50}`),
			},
			want: false,
		},
		{
			name: "not a collection",
			resp: &Response{
				Request: Request{Method: http.MethodGet},
				Body:    []byte(`{"id": "123"}`),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsIterable(tt.resp))
		})
	}
}

func TestDecodePage_EntriesPreserved(t *testing.T) {
	p, err := decodePage([]byte(`{"entries": [{"id": "1"}, {"id": "2"}], "next_marker": "m", "limit": 2}`))
	require.NoError(t, err)

	require.Len(t, p.Entries, 2)
	assert.JSONEq(t, `{"id": "1"}`, string(p.Entries[0]))
	assert.JSONEq(t, `{"id": "2"}`, string(p.Entries[1]))
	require.NotNil(t, p.Limit)
	assert.Equal(t, 2, *p.Limit)
}
