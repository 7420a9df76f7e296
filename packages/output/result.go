package output

import (
	"time"

	"github.com/abdul-hamid-achik/fetchkit/packages/assertions"
	"github.com/abdul-hamid-achik/fetchkit/packages/fetcher"
	fkhttp "github.com/abdul-hamid-achik/fetchkit/packages/http"
)

// Result is one executed request as the CLI reports it.
type Result struct {
	Method   string
	URL      string
	Response *fkhttp.Response // nil when the request never got a response
	Data     any              // decoded body, or the --query selection
	Err      error
	// SchemaErrors lists JSON schema violations of the response body.
	SchemaErrors []string
	Assertions   []*assertions.Result
}

// Passed reports whether the request succeeded, the body matched its schema
// and every assertion held.
func (r *Result) Passed() bool {
	if r.Err != nil || len(r.SchemaErrors) > 0 {
		return false
	}
	for _, a := range r.Assertions {
		if !a.Passed {
			return false
		}
	}
	return true
}

// Duration is the round-trip time, or zero without a response.
func (r *Result) Duration() time.Duration {
	if r.Response == nil {
		return 0
	}
	return r.Response.Duration
}

// APIError returns the *fetcher.APIError behind Err, if any.
func (r *Result) APIError() (*fetcher.APIError, bool) {
	if r.Err == nil {
		return nil, false
	}
	return fetcher.AsAPIError(r.Err)
}

// Formatter renders results.
type Formatter interface {
	FormatResult(result *Result)
	FormatError(err error)
	FormatHeader(version string)
}
