package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	ct := r.ContentType()
	return strings.Contains(ct, "application/json")
}

// StatusText returns the reason phrase of the status line ("Not Found" for
// "404 Not Found"), or an empty string when the server sent none.
func (r *Response) StatusText() string {
	text := strings.TrimSpace(r.Status)
	code := strconv.Itoa(r.StatusCode)
	if text == code {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(text, code+" "))
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// IsOK reports whether the status is in the 2xx or 3xx range
func (r *Response) IsOK() bool {
	return r.IsSuccess() || r.IsRedirect()
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
