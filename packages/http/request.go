package http

import (
	"io"
	"net/http"
	neturl "net/url"
	"strings"
)

// RedirectMode controls how a request reacts to 3xx responses.
type RedirectMode string

const (
	// RedirectFollow follows redirects up to the client's limit
	RedirectFollow RedirectMode = "follow"
	// RedirectManual stops at the first redirect and returns it as the response
	RedirectManual RedirectMode = "manual"
	// RedirectError fails the request with ErrRedirect when a redirect is received
	RedirectError RedirectMode = "error"
)

// CredentialsMode controls whether the client's cookie jar takes part in a request.
type CredentialsMode string

const (
	// CredentialsInclude always sends and stores cookies
	CredentialsInclude CredentialsMode = "include"
	// CredentialsSameOrigin uses cookies only when the target shares the request origin
	CredentialsSameOrigin CredentialsMode = "same-origin"
	// CredentialsOmit never sends or stores cookies
	CredentialsOmit CredentialsMode = "omit"
)

// Request is a single, fully resolved outgoing request.
type Request struct {
	Method      string
	URL         string
	Header      http.Header
	Body        io.Reader
	Redirect    RedirectMode
	Credentials CredentialsMode
	// Origin is the scheme://host the request is considered to come from.
	// Only consulted for CredentialsSameOrigin.
	Origin string
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method: method,
		URL:    requestURL,
		Header: make(http.Header),
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(key, value)
	return r
}

func (r *Request) SetBody(body io.Reader) *Request {
	r.Body = body
	return r
}

// method returns the request method, defaulting to GET
func (r *Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

// sameOrigin reports whether the request URL shares scheme and host with Origin
func (r *Request) sameOrigin() bool {
	if r.Origin == "" {
		return false
	}
	target, err := neturl.Parse(r.URL)
	if err != nil {
		return false
	}
	origin, err := neturl.Parse(r.Origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(target.Scheme, origin.Scheme) && strings.EqualFold(target.Host, origin.Host)
}
