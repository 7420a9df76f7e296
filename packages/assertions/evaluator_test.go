package assertions

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	fkhttp "github.com/abdul-hamid-achik/fetchkit/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createResponse(statusCode int, body string, contentType string) *fkhttp.Response {
	if contentType == "" {
		contentType = "application/json"
	}
	return &fkhttp.Response{
		StatusCode: statusCode,
		Headers:    http.Header{"Content-Type": {contentType}, "X-Request-Id": {"abc-123"}},
		Body:       []byte(body),
		Duration:   100 * time.Millisecond,
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		expr string
		want *Assertion
	}{
		{expr: "status == 200", want: &Assertion{Subject: "status", Operator: OpEquals, Expected: float64(200)}},
		{expr: "body.name == \"John Doe\"", want: &Assertion{Subject: "body.name", Operator: OpEquals, Expected: "John Doe"}},
		{expr: "body.name == John Doe", want: &Assertion{Subject: "body.name", Operator: OpEquals, Expected: "John Doe"}},
		{expr: "header.Content-Type contains json", want: &Assertion{Subject: "header.Content-Type", Operator: OpContains, Expected: "json"}},
		{expr: "body.tags == [\"a\",\"b\"]", want: &Assertion{Subject: "body.tags", Operator: OpEquals, Expected: []any{"a", "b"}}},
		{expr: "body.id exists", want: &Assertion{Subject: "body.id", Operator: OpExists}},
		{expr: "duration <= 500", want: &Assertion{Subject: "duration", Operator: OpLessOrEqual, Expected: float64(500)}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, expr := range []string{"", "status", "status ~= 200", "status ==", "body.id exists now"} {
		_, err := Parse(expr)
		assert.Error(t, err, "expr %q", expr)
	}
}

func TestAssertion_String(t *testing.T) {
	a, err := Parse("status == 200")
	require.NoError(t, err)
	assert.Equal(t, "status == 200", a.String())

	a, err = Parse("body.id !exists")
	require.NoError(t, err)
	assert.Equal(t, "body.id !exists", a.String())
}

func TestEvaluator(t *testing.T) {
	resp := createResponse(201, `{"user":{"name":"John","age":30},"items":[{"id":1},{"id":2}],"tags":["a","b"]}`, "")
	e := NewEvaluator(resp)

	tests := []struct {
		expr   string
		passed bool
	}{
		{"status == 201", true},
		{"status != 200", true},
		{"status >= 200", true},
		{"status < 300", true},
		{"status > 500", false},
		{"duration < 1000", true},
		{"header.X-Request-Id matches ^abc-\\d+$", true},
		{"header.Content-Type contains json", true},
		{"body.user.name == John", true},
		{"body.user.age == 30", true},
		{"body.user.age == 31", false},
		{"body.items[1].id == 2", true},
		{"body.items length 2", true},
		{"body.tags contains a", true},
		{"body.tags contains z", false},
		{"body.user type object", true},
		{"body.tags type array", true},
		{"body.missing exists", false},
		{"body.missing !exists", true},
		{"body.user.name matches ^J", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			a, err := Parse(tt.expr)
			require.NoError(t, err)
			result := e.Evaluate(a)
			assert.Equal(t, tt.passed, result.Passed, result.Message)
		})
	}
}

func TestEvaluator_NonJSONBody(t *testing.T) {
	e := NewEvaluator(createResponse(200, "plain text", "text/plain"))

	a, _ := Parse("body contains plain")
	assert.True(t, e.Evaluate(a).Passed)

	a, _ = Parse("body.field exists")
	result := e.Evaluate(a)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "not JSON")
}

func TestEvaluator_UnknownSubject(t *testing.T) {
	e := NewEvaluator(createResponse(200, `{}`, ""))

	result := e.Evaluate(&Assertion{Subject: "cookies", Operator: OpExists})

	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "unknown subject")
}

func TestEvaluator_EvaluateAll(t *testing.T) {
	e := NewEvaluator(createResponse(200, `{"ok":true}`, ""))
	ok, _ := Parse("body.ok == true")
	bad, _ := Parse("status == 500")

	results, passed := e.EvaluateAll([]*Assertion{ok, bad})

	assert.False(t, passed)
	require.Len(t, results, 2)
	assert.True(t, results[0].Passed)
	assert.False(t, results[1].Passed)
	assert.Equal(t, "expected 500, got 200", results[1].Message)
}

func TestQuery(t *testing.T) {
	body := []byte(`{"data":{"items":[{"id":1,"name":"a"},{"id":2,"name":"b"}]}}`)

	v, ok := Query(body, "data.items[1].name")
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	v, ok = Query(body, "data.items.#.id")
	assert.True(t, ok)
	assert.Equal(t, []any{float64(1), float64(2)}, v)

	_, ok = Query(body, "data.missing")
	assert.False(t, ok)

	v, ok = Query(body, "")
	assert.True(t, ok)
	assert.IsType(t, map[string]any{}, v)

	_, ok = Query([]byte("not json"), "a")
	assert.False(t, ok)
}

func TestValidateSchema(t *testing.T) {
	dir := t.TempDir()
	schema := `{
  "type": "object",
  "required": ["id", "name"],
  "properties": {"id": {"type": "integer"}, "name": {"type": "string"}}
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user.json"), []byte(schema), 0644))

	violations, err := ValidateSchema([]byte(`{"id":1,"name":"Ada"}`), "user.json", dir)
	require.NoError(t, err)
	assert.Empty(t, violations)

	violations, err = ValidateSchema([]byte(`{"id":"x"}`), "user.json", dir)
	require.NoError(t, err)
	assert.Len(t, violations, 2)

	_, err = ValidateSchema([]byte(`{}`), "../outside.json", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path traversal")

	_, err = ValidateSchema([]byte(`{}`), "missing.json", dir)
	assert.Error(t, err)
}
