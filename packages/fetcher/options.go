package fetcher

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/textproto"

	fkhttp "github.com/abdul-hamid-achik/fetchkit/packages/http"
)

type (
	RedirectMode    = fkhttp.RedirectMode
	CredentialsMode = fkhttp.CredentialsMode
)

const (
	RedirectFollow = fkhttp.RedirectFollow
	RedirectManual = fkhttp.RedirectManual
	RedirectError  = fkhttp.RedirectError

	CredentialsInclude    = fkhttp.CredentialsInclude
	CredentialsSameOrigin = fkhttp.CredentialsSameOrigin
	CredentialsOmit       = fkhttp.CredentialsOmit
)

// Body is a request payload. Open is called once per round trip and must
// return a fresh reader each time, so the same RequestOptions can be sent
// more than once. The returned content type is applied only when the
// request carries no Content-Type header.
//
// The provided variants are BytesBody, StringBody, JSONBody and
// *formdata.Form.
type Body interface {
	Open() (r io.Reader, contentType string, err error)
}

// BytesBody sends raw bytes with no implied content type.
type BytesBody []byte

func (b BytesBody) Open() (io.Reader, string, error) {
	return bytes.NewReader(b), "", nil
}

// StringBody sends a raw string with no implied content type.
type StringBody string

func (s StringBody) Open() (io.Reader, string, error) {
	return bytes.NewBufferString(string(s)), "", nil
}

// JSONBody marshals Value and implies Content-Type: application/json.
type JSONBody struct {
	Value any
}

func (j JSONBody) Open() (io.Reader, string, error) {
	data, err := json.Marshal(j.Value)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

// RequestOptions describes one request. Zero values mean "unset": an empty
// Method is sent as GET, an empty Redirect follows redirects and an empty
// Credentials includes the client's cookies.
//
// Pipeline stages treat RequestOptions as a value and return a new one.
type RequestOptions struct {
	Method      string
	Headers     http.Header
	Body        Body
	Redirect    RedirectMode
	Credentials CredentialsMode
}

// Clone returns a copy whose headers can be modified without affecting o.
func (o RequestOptions) Clone() RequestOptions {
	out := o
	out.Headers = MergeHeaders(o.Headers)
	return out
}

// With layers partial over o: every non-zero field of partial wins, and
// headers are merged per key with partial's values replacing o's.
func (o RequestOptions) With(partial RequestOptions) RequestOptions {
	out := o
	if partial.Method != "" {
		out.Method = partial.Method
	}
	if partial.Body != nil {
		out.Body = partial.Body
	}
	if partial.Redirect != "" {
		out.Redirect = partial.Redirect
	}
	if partial.Credentials != "" {
		out.Credentials = partial.Credentials
	}
	out.Headers = MergeHeaders(o.Headers, partial.Headers)
	return out
}

// MergeHeaders merges header sets left to right. Keys are compared
// case-insensitively and a later source's values for a name replace the
// earlier ones entirely. The result is never nil and shares no slices with
// the sources.
func MergeHeaders(sources ...http.Header) http.Header {
	result := make(http.Header)
	for _, src := range sources {
		for k, v := range src {
			result[textproto.CanonicalMIMEHeaderKey(k)] = append([]string(nil), v...)
		}
	}
	return result
}
