package output

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// JSONOutput is the machine-readable form of a Result.
type JSONOutput struct {
	Request      JSONRequest   `json:"request"`
	Response     *JSONResponse `json:"response,omitempty"`
	Data         any           `json:"data,omitempty"`
	Passed       bool          `json:"passed"`
	Error        *JSONError    `json:"error,omitempty"`
	SchemaErrors []string      `json:"schemaErrors,omitempty"`
	Assertions   []JSONAssert  `json:"assertions,omitempty"`
	Time         string        `json:"time"`
}

type JSONRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers,omitempty"`
	Duration   float64           `json:"duration"` // milliseconds
}

// JSONError carries either an API error (status and data set) or a
// transport/decoding failure (message only).
type JSONError struct {
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// JSONAssert is one evaluated --expect assertion.
type JSONAssert struct {
	Expression string `json:"expression"`
	Passed     bool   `json:"passed"`
	Actual     any    `json:"actual,omitempty"`
	Message    string `json:"message,omitempty"`
}

// JSONFormatter writes one JSON document per result
type JSONFormatter struct {
	writer io.Writer
	now    func() time.Time
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *Result) {
	out := JSONOutput{
		Request:      JSONRequest{Method: result.Method, URL: result.URL},
		Data:         result.Data,
		Passed:       result.Passed(),
		SchemaErrors: result.SchemaErrors,
		Time:         f.now().Format(time.RFC3339),
	}

	for _, a := range result.Assertions {
		out.Assertions = append(out.Assertions, JSONAssert{
			Expression: a.Assertion.String(),
			Passed:     a.Passed,
			Actual:     a.Actual,
			Message:    a.Message,
		})
	}

	if resp := result.Response; resp != nil {
		headers := make(map[string]string, len(resp.Headers))
		for name := range resp.Headers {
			headers[name] = resp.Headers.Get(name)
		}
		out.Response = &JSONResponse{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Headers:    headers,
			Duration:   float64(resp.DurationMs()),
		}
	}

	if result.Err != nil {
		if apiErr, ok := result.APIError(); ok {
			out.Error = &JSONError{Message: apiErr.Message, Status: apiErr.Status, Data: apiErr.Data}
		} else {
			out.Error = &JSONError{Message: result.Err.Error()}
		}
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(out)
}

func (f *JSONFormatter) FormatError(err error) {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(map[string]any{"error": JSONError{Message: err.Error()}})
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}
