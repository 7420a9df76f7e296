package assertions

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	fkhttp "github.com/abdul-hamid-achik/fetchkit/packages/http"
	"github.com/tidwall/gjson"
)

type Result struct {
	Assertion *Assertion
	Passed    bool
	Actual    any
	Message   string
}

// Evaluator checks assertions against one response.
type Evaluator struct {
	response *fkhttp.Response
	bodyJSON gjson.Result
}

func NewEvaluator(resp *fkhttp.Response) *Evaluator {
	e := &Evaluator{response: resp}
	if resp.IsJSON() && gjson.ValidBytes(resp.Body) {
		e.bodyJSON = gjson.ParseBytes(resp.Body)
	}
	return e
}

// Query returns the value at a gjson path in a JSON body. Bracket indexes
// are accepted ("items[0].id"). An empty path selects the whole document.
func Query(body []byte, path string) (any, bool) {
	if !gjson.ValidBytes(body) {
		return nil, false
	}
	doc := gjson.ParseBytes(body)
	if path == "" || path == "." {
		return doc.Value(), true
	}
	result := doc.Get(convertBracketNotation(strings.TrimPrefix(path, ".")))
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

// convertBracketNotation converts array bracket notation to gjson dot notation
// e.g., "[0].id" -> "0.id", "items[0].tags[1]" -> "items.0.tags.1"
func convertBracketNotation(path string) string {
	result := bracketIndex.ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(result, ".")
}

var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

func (e *Evaluator) Evaluate(a *Assertion) *Result {
	result := &Result{Assertion: a}

	actual, err := e.value(a.Subject)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	result.Actual = actual

	result.Passed, result.Message = e.compare(actual, a.Operator, a.Expected)
	if a.Operator == OpLength {
		result.Actual = computeLength(actual)
	}
	return result
}

// EvaluateAll runs every assertion and reports whether all passed.
func (e *Evaluator) EvaluateAll(list []*Assertion) ([]*Result, bool) {
	results := make([]*Result, len(list))
	passed := true
	for i, a := range list {
		results[i] = e.Evaluate(a)
		passed = passed && results[i].Passed
	}
	return results, passed
}

// value resolves status, duration, header <Name>, body and body.<path>.
func (e *Evaluator) value(subject string) (any, error) {
	switch {
	case subject == "status":
		return e.response.StatusCode, nil
	case subject == "duration":
		return e.response.DurationMs(), nil
	case strings.HasPrefix(subject, "header."):
		return e.response.Header(strings.TrimPrefix(subject, "header.")), nil
	case subject == "body":
		if e.bodyJSON.Exists() {
			return e.bodyJSON.Value(), nil
		}
		return e.response.BodyString(), nil
	case strings.HasPrefix(subject, "body.") || strings.HasPrefix(subject, "body["):
		if !e.bodyJSON.Exists() {
			return nil, fmt.Errorf("response body is not JSON")
		}
		path := convertBracketNotation(strings.TrimPrefix(subject, "body"))
		result := e.bodyJSON.Get(path)
		if !result.Exists() {
			return nil, nil
		}
		return result.Value(), nil
	default:
		return nil, fmt.Errorf("unknown subject %q: use status, duration, header.<name>, body or body.<path>", subject)
	}
}

func (e *Evaluator) compare(actual any, op Operator, expected any) (bool, string) {
	switch op {
	case OpEquals:
		return equals(actual, expected)
	case OpNotEquals:
		if ok, _ := equals(actual, expected); ok {
			return false, fmt.Sprintf("expected not to equal %v", expected)
		}
		return true, ""
	case OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual:
		return compareNumeric(actual, expected, op)
	case OpContains:
		return contains(actual, expected)
	case OpMatches:
		return matches(actual, expected)
	case OpExists:
		if actual == nil {
			return false, "expected to exist"
		}
		return true, ""
	case OpNotExists:
		if actual != nil {
			return false, "expected not to exist"
		}
		return true, ""
	case OpType:
		return typeCheck(actual, expected)
	case OpLength:
		return length(actual, expected)
	default:
		return false, fmt.Sprintf("unknown operator: %v", op)
	}
}

func equals(actual, expected any) (bool, string) {
	if reflect.DeepEqual(actual, expected) {
		return true, ""
	}

	actualNum, aOk := toFloat64(actual)
	expectedNum, eOk := toFloat64(expected)
	if aOk && eOk && actualNum == expectedNum {
		return true, ""
	}

	if fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", expected) {
		return true, ""
	}

	return false, fmt.Sprintf("expected %v, got %v", expected, actual)
}

func compareNumeric(actual, expected any, op Operator) (bool, string) {
	actualNum, aOk := toFloat64(actual)
	expectedNum, eOk := toFloat64(expected)
	if !aOk || !eOk {
		return false, fmt.Sprintf("cannot compare non-numeric values: %v %s %v", actual, op, expected)
	}

	var passed bool
	switch op {
	case OpGreaterThan:
		passed = actualNum > expectedNum
	case OpGreaterOrEqual:
		passed = actualNum >= expectedNum
	case OpLessThan:
		passed = actualNum < expectedNum
	case OpLessOrEqual:
		passed = actualNum <= expectedNum
	}

	if passed {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v %s %v", actual, op, expected)
}

func contains(actual, expected any) (bool, string) {
	if arr, ok := actual.([]any); ok {
		for _, item := range arr {
			if ok, _ := equals(item, expected); ok {
				return true, ""
			}
		}
		return false, fmt.Sprintf("expected array to include %v", expected)
	}
	if strings.Contains(fmt.Sprintf("%v", actual), fmt.Sprintf("%v", expected)) {
		return true, ""
	}
	return false, fmt.Sprintf("expected '%v' to contain '%v'", actual, expected)
}

func matches(actual, expected any) (bool, string) {
	pattern := strings.Trim(fmt.Sprintf("%v", expected), "/")
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid regex pattern: %v", err)
	}
	if re.MatchString(fmt.Sprintf("%v", actual)) {
		return true, ""
	}
	return false, fmt.Sprintf("expected '%v' to match /%v/", actual, pattern)
}

func typeCheck(actual, expected any) (bool, string) {
	var actualType string
	switch actual.(type) {
	case nil:
		actualType = "null"
	case bool:
		actualType = "boolean"
	case float64, int, int64:
		actualType = "number"
	case string:
		actualType = "string"
	case []any:
		actualType = "array"
	case map[string]any:
		actualType = "object"
	default:
		actualType = reflect.TypeOf(actual).String()
	}

	if actualType == fmt.Sprintf("%v", expected) {
		return true, ""
	}
	return false, fmt.Sprintf("expected type %v, got %s", expected, actualType)
}

// computeLength returns the length of a value, or -1 if length cannot be computed
func computeLength(actual any) int {
	switch v := actual.(type) {
	case string:
		return len(v)
	case []any:
		return len(v)
	case map[string]any:
		return len(v)
	}
	return -1
}

func length(actual, expected any) (bool, string) {
	want, ok := toFloat64(expected)
	if !ok {
		return false, fmt.Sprintf("expected length must be a number, got %v", expected)
	}
	got := computeLength(actual)
	if got == -1 {
		return false, fmt.Sprintf("cannot get length of %T", actual)
	}
	if float64(got) == want {
		return true, ""
	}
	return false, fmt.Sprintf("expected length %v, got %d", expected, got)
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
