package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	neturl "net/url"
	"reflect"

	fkhttp "github.com/abdul-hamid-achik/fetchkit/packages/http"
	"github.com/tidwall/gjson"
)

// Doer performs one round trip and returns the fully read response.
// *fkhttp.Client implements it.
type Doer interface {
	Do(ctx context.Context, req *fkhttp.Request) (*fkhttp.Response, error)
}

// Config is the immutable configuration of a Fetcher.
type Config struct {
	BaseURL        string
	DefaultHeaders http.Header
	Interceptor    Interceptor
}

// Fetcher executes requests against a base URL. It is safe for concurrent use.
type Fetcher struct {
	config Config
	origin string
	doer   Doer
}

type Option func(*Fetcher)

// WithDefaultHeaders adds headers sent with every request. They have the
// lowest precedence.
func WithDefaultHeaders(headers http.Header) Option {
	return func(f *Fetcher) {
		f.config.DefaultHeaders = MergeHeaders(f.config.DefaultHeaders, headers)
	}
}

func WithDefaultHeader(key, value string) Option {
	return func(f *Fetcher) {
		f.config.DefaultHeaders = MergeHeaders(f.config.DefaultHeaders, http.Header{key: {value}})
	}
}

// WithInterceptor sets the interceptor run before every request. Use
// Compose to install several.
func WithInterceptor(i Interceptor) Option {
	return func(f *Fetcher) {
		f.config.Interceptor = i
	}
}

// WithDoer replaces the transport. The default is fkhttp.NewClient().
func WithDoer(d Doer) Option {
	return func(f *Fetcher) {
		f.doer = d
	}
}

func New(baseURL string, opts ...Option) *Fetcher {
	f := &Fetcher{
		config: Config{
			BaseURL:        baseURL,
			DefaultHeaders: make(http.Header),
		},
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.doer == nil {
		f.doer = fkhttp.NewClient()
	}

	if u, err := neturl.Parse(baseURL); err == nil && u.Host != "" {
		f.origin = u.Scheme + "://" + u.Host
	}

	return f
}

// Config returns a copy of the fetcher's configuration.
func (f *Fetcher) Config() Config {
	cfg := f.config
	cfg.DefaultHeaders = MergeHeaders(f.config.DefaultHeaders)
	return cfg
}

// URL returns the full target URL for path.
func (f *Fetcher) URL(path string) string {
	return f.config.BaseURL + path
}

// Prepare returns the options that would be sent for path: defaults merged
// with opts, then replaced by the interceptor's result.
func (f *Fetcher) Prepare(ctx context.Context, path string, opts *RequestOptions) (RequestOptions, error) {
	url := f.URL(path)

	var call RequestOptions
	if opts != nil {
		call = *opts
	}

	merged := call
	merged.Headers = MergeHeaders(f.config.DefaultHeaders, call.Headers)

	if f.config.Interceptor == nil {
		return merged, nil
	}
	return f.config.Interceptor(ctx, merged, url)
}

// Execute sends one request to BaseURL+path and returns the decoded body:
// the JSON value (map[string]any, []any, string, float64, bool or nil) for
// application/json responses, the body text otherwise, and nil for 204.
//
// A status outside 200-399 yields an *APIError. Transport and JSON syntax
// errors are returned unchanged.
func (f *Fetcher) Execute(ctx context.Context, path string, opts *RequestOptions) (any, error) {
	res, err := f.do(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	if res.resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return res.data, nil
}

// Fetch is the typed form of Execute. JSON bodies are decoded into T; text
// bodies can be received as string, []byte or any. A 204 returns the zero T.
// The type is not validated beyond what decoding requires.
func Fetch[T any](ctx context.Context, f *Fetcher, path string, opts *RequestOptions) (T, error) {
	var out T

	res, err := f.do(ctx, path, opts)
	if err != nil {
		return out, err
	}
	if res.resp.StatusCode == http.StatusNoContent {
		return out, nil
	}

	if res.isJSON {
		if res.data == nil {
			return out, nil
		}
		if err := json.Unmarshal(res.resp.Body, &out); err != nil {
			return out, &DecodeError{URL: res.url, ContentType: res.resp.ContentType(), Target: typeName[T](), Err: err}
		}
		return out, nil
	}

	switch p := any(&out).(type) {
	case *string:
		*p = res.resp.BodyString()
	case *[]byte:
		*p = append([]byte(nil), res.resp.Body...)
	case *any:
		*p = res.resp.BodyString()
	default:
		return out, &DecodeError{URL: res.url, ContentType: res.resp.ContentType(), Target: typeName[T]()}
	}
	return out, nil
}

type result struct {
	url    string
	resp   *fkhttp.Response
	data   any
	isJSON bool
}

func (f *Fetcher) do(ctx context.Context, path string, opts *RequestOptions) (*result, error) {
	url := f.URL(path)

	final, err := f.Prepare(ctx, path, opts)
	if err != nil {
		return nil, err
	}

	req, err := f.buildRequest(url, final)
	if err != nil {
		return nil, err
	}

	resp, err := f.doer.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	res := &result{url: url, resp: resp, isJSON: resp.IsJSON()}

	// Error bodies are decoded with the same rule as success bodies. The
	// 204 rule applies after decoding, so a malformed JSON body on a 204
	// still fails with its syntax error.
	if res.isJSON {
		if len(bytes.TrimSpace(resp.Body)) > 0 {
			if err := json.Unmarshal(resp.Body, &res.data); err != nil {
				return nil, err
			}
		}
	} else {
		res.data = resp.BodyString()
	}

	if !resp.IsOK() {
		return nil, &APIError{
			Message: errorMessage(resp, res.isJSON),
			URL:     url,
			Status:  resp.StatusCode,
			Data:    res.data,
		}
	}

	return res, nil
}

func (f *Fetcher) buildRequest(url string, opts RequestOptions) (*fkhttp.Request, error) {
	req := fkhttp.NewRequest(opts.Method, url)
	req.Header = MergeHeaders(opts.Headers)
	req.Redirect = opts.Redirect
	req.Credentials = opts.Credentials
	req.Origin = f.origin

	if opts.Body != nil {
		body, contentType, err := opts.Body.Open()
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		req.SetBody(body)
		if contentType != "" && req.Header.Get("Content-Type") == "" {
			req.SetHeader("Content-Type", contentType)
		}
	}

	return req, nil
}

// errorMessage picks the JSON body's "message" field, then the status
// reason phrase, then DefaultErrorMessage.
func errorMessage(resp *fkhttp.Response, isJSON bool) string {
	if isJSON {
		if msg := gjson.GetBytes(resp.Body, "message"); msg.Type == gjson.String && msg.Str != "" {
			return msg.Str
		}
	}
	if text := resp.StatusText(); text != "" {
		return text
	}
	return DefaultErrorMessage
}

func typeName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return t.String()
}
