package interceptors

import (
	"context"
	"net/http"

	"github.com/abdul-hamid-achik/fetchkit/packages/fetcher"
	"github.com/google/uuid"
)

// RequestIDHeader is the header RequestID writes by default.
const RequestIDHeader = "X-Request-Id"

// UserAgent sets the User-Agent header.
func UserAgent(ua string) fetcher.Interceptor {
	return fetcher.NewInterceptor(fetcher.Static(fetcher.RequestOptions{
		Headers: http.Header{"User-Agent": {ua}},
	}))
}

// Headers sets every header in h, replacing existing values per name.
func Headers(h http.Header) fetcher.Interceptor {
	return fetcher.NewInterceptor(fetcher.Static(fetcher.RequestOptions{Headers: h}))
}

// RequestID tags each request with a random UUID under header (default
// X-Request-Id). A request that already carries the header keeps its value.
func RequestID(header string) fetcher.Interceptor {
	if header == "" {
		header = RequestIDHeader
	}
	return fetcher.NewInterceptor(fetcher.Computed(func(_ context.Context, opts fetcher.RequestOptions, _ string) (fetcher.RequestOptions, error) {
		if opts.Headers.Get(header) != "" {
			return fetcher.RequestOptions{}, nil
		}
		return fetcher.RequestOptions{
			Headers: http.Header{header: {uuid.New().String()}},
		}, nil
	}))
}
