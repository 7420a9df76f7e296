package fetcher

import "context"

// Interceptor transforms request options before they are sent. It receives
// the full target URL and may block (for example while refreshing a token);
// ctx is the caller's context. Interceptors that do not need the URL ignore it.
type Interceptor func(ctx context.Context, opts RequestOptions, url string) (RequestOptions, error)

// Transform is the partial options an interceptor built by NewInterceptor
// layers over the incoming options. Use Static or Computed to create one.
type Transform interface {
	resolve(ctx context.Context, opts RequestOptions, url string) (RequestOptions, error)
}

type staticTransform struct {
	partial RequestOptions
}

func (s staticTransform) resolve(context.Context, RequestOptions, string) (RequestOptions, error) {
	return s.partial, nil
}

type computedTransform struct {
	fn func(ctx context.Context, opts RequestOptions, url string) (RequestOptions, error)
}

func (c computedTransform) resolve(ctx context.Context, opts RequestOptions, url string) (RequestOptions, error) {
	return c.fn(ctx, opts.Clone(), url)
}

// Static returns a Transform that always yields partial.
func Static(partial RequestOptions) Transform {
	return staticTransform{partial: partial.Clone()}
}

// Computed returns a Transform that calls fn with a copy of the incoming
// options and the target URL.
func Computed(fn func(ctx context.Context, opts RequestOptions, url string) (RequestOptions, error)) Transform {
	return computedTransform{fn: fn}
}

// NewInterceptor returns an Interceptor that resolves t and merges the result
// over the incoming options (see RequestOptions.With). Unlike the Fetcher,
// which replaces its options with an interceptor's result, the returned
// interceptor keeps every incoming field that t does not set.
func NewInterceptor(t Transform) Interceptor {
	return func(ctx context.Context, opts RequestOptions, url string) (RequestOptions, error) {
		if t == nil {
			return opts, nil
		}
		partial, err := t.resolve(ctx, opts, url)
		if err != nil {
			return RequestOptions{}, err
		}
		return opts.With(partial), nil
	}
}

// Compose chains interceptors in order. Each one sees the previous one's
// output and the same URL; the first error stops the chain. Nil entries are
// skipped and an empty composition returns its input unchanged.
func Compose(interceptors ...Interceptor) Interceptor {
	chain := make([]Interceptor, 0, len(interceptors))
	for _, i := range interceptors {
		if i != nil {
			chain = append(chain, i)
		}
	}

	return func(ctx context.Context, opts RequestOptions, url string) (RequestOptions, error) {
		result := opts
		for _, interceptor := range chain {
			var err error
			result, err = interceptor(ctx, result, url)
			if err != nil {
				return RequestOptions{}, err
			}
		}
		return result, nil
	}
}

// Identity returns opts unchanged.
func Identity(_ context.Context, opts RequestOptions, _ string) (RequestOptions, error) {
	return opts, nil
}

// Sink receives the requests observed by a Logging interceptor.
type Sink interface {
	LogRequest(url string, opts RequestOptions)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(url string, opts RequestOptions)

func (f SinkFunc) LogRequest(url string, opts RequestOptions) {
	f(url, opts)
}

// Logging reports every request to sink and returns the options unchanged.
func Logging(sink Sink) Interceptor {
	return func(_ context.Context, opts RequestOptions, url string) (RequestOptions, error) {
		if sink != nil {
			sink.LogRequest(url, opts.Clone())
		}
		return opts, nil
	}
}
