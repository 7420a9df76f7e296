package fetcher

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeHeaders(t *testing.T) {
	tests := []struct {
		name    string
		sources []http.Header
		want    http.Header
	}{
		{
			name: "nothing",
			want: http.Header{},
		},
		{
			name:    "later wins",
			sources: []http.Header{{"A": {"1"}}, {"A": {"2"}, "B": {"3"}}},
			want:    http.Header{"A": {"2"}, "B": {"3"}},
		},
		{
			name:    "case insensitive",
			sources: []http.Header{{"content-type": {"text/plain"}}, {"CONTENT-TYPE": {"application/json"}}},
			want:    http.Header{"Content-Type": {"application/json"}},
		},
		{
			name:    "values replaced, not accumulated",
			sources: []http.Header{{"Accept": {"a", "b"}}, {"Accept": {"c"}}},
			want:    http.Header{"Accept": {"c"}},
		},
		{
			name:    "multi value list kept from one source",
			sources: []http.Header{{"X": {"1"}}, {"Accept": {"a", "b"}}},
			want:    http.Header{"X": {"1"}, "Accept": {"a", "b"}},
		},
		{
			name:    "nil sources skipped",
			sources: []http.Header{nil, {"A": {"1"}}, nil},
			want:    http.Header{"A": {"1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeHeaders(tt.sources...))
		})
	}
}

func TestMergeHeaders_NoSharedSlices(t *testing.T) {
	src := http.Header{"A": {"1"}}
	merged := MergeHeaders(src)

	merged["A"][0] = "changed"

	assert.Equal(t, "1", src.Get("A"))
}

func TestRequestOptions_Clone(t *testing.T) {
	in := RequestOptions{Method: http.MethodGet, Headers: http.Header{"A": {"1"}}}
	out := in.Clone()

	out.Headers.Set("A", "2")
	out.Method = http.MethodPost

	assert.Equal(t, "1", in.Headers.Get("A"))
	assert.Equal(t, http.MethodGet, in.Method)
}

func TestBodies(t *testing.T) {
	tests := []struct {
		name        string
		body        Body
		wantContent string
		wantType    string
	}{
		{name: "bytes", body: BytesBody("raw"), wantContent: "raw"},
		{name: "string", body: StringBody("text"), wantContent: "text"},
		{name: "json", body: JSONBody{Value: map[string]any{"k": "v"}}, wantContent: `{"k":"v"}`, wantType: "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 2; i++ {
				r, ct, err := tt.body.Open()
				require.NoError(t, err)
				data, err := io.ReadAll(r)
				require.NoError(t, err)
				assert.Equal(t, tt.wantContent, string(data), "open #%d", i+1)
				assert.Equal(t, tt.wantType, ct)
			}
		})
	}
}

func TestAPIError_JSON(t *testing.T) {
	err := &APIError{Message: "not found", URL: "https://api.example.com/users/42", Status: 404, Data: map[string]any{"message": "not found"}}

	data, jerr := json.Marshal(err)

	require.NoError(t, jerr)
	assert.JSONEq(t, `{"message":"not found","url":"https://api.example.com/users/42","status":404,"data":{"message":"not found"}}`, string(data))
	assert.Equal(t, "api error 404: not found (https://api.example.com/users/42)", err.Error())
}

func TestIsStatus(t *testing.T) {
	err := &APIError{Status: 401}

	assert.True(t, IsStatus(err, 401))
	assert.False(t, IsStatus(err, 403))
	assert.False(t, IsStatus(io.EOF, 401))
	assert.False(t, IsStatus(nil, 401))
}
