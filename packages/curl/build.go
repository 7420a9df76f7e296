// Package curl renders requests as curl commands and parses curl commands
// back into requests.
package curl

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/fetchkit/packages/fetcher"
	"github.com/abdul-hamid-achik/fetchkit/packages/formdata"
)

const lineSeparator = " \\\n  "

// Command renders opts as a curl command, choosing BuildFormData for
// multipart bodies and Build otherwise.
func Command(url string, opts *fetcher.RequestOptions, extraHeaders map[string]string) string {
	if opts != nil {
		if _, ok := opts.Body.(*formdata.Form); ok {
			return BuildFormData(url, opts, extraHeaders)
		}
	}
	return Build(url, opts, extraHeaders)
}

// Build renders a JSON-style request. The method defaults to GET and a
// Content-Type of application/json is assumed unless a header overrides it.
// Extra headers with empty values are ignored.
func Build(url string, opts *fetcher.RequestOptions, extraHeaders map[string]string) string {
	var o fetcher.RequestOptions
	if opts != nil {
		o = *opts
	}

	method := o.Method
	if method == "" {
		method = http.MethodGet
	}

	headers := fetcher.MergeHeaders(
		http.Header{"Content-Type": {"application/json"}},
		o.Headers,
		extra(extraHeaders),
	)

	parts := []string{fmt.Sprintf(`curl -X %s "%s"`, method, url)}
	for _, name := range headerOrder(headers) {
		for _, value := range headers[name] {
			parts = append(parts, fmt.Sprintf(`-H "%s: %s"`, name, value))
		}
	}

	if body := bodyString(o.Body); body != "" {
		parts = append(parts, "-d "+quote(body))
	}

	return strings.Join(parts, lineSeparator)
}

// BuildFormData renders a multipart request. The method defaults to POST and
// Content-Type headers are dropped so curl can set the boundary itself. File
// parts render as -F "key=@filename"; other bodies fall back to -d.
func BuildFormData(url string, opts *fetcher.RequestOptions, extraHeaders map[string]string) string {
	var o fetcher.RequestOptions
	if opts != nil {
		o = *opts
	}

	method := o.Method
	if method == "" {
		method = http.MethodPost
	}

	headers := fetcher.MergeHeaders(o.Headers, extra(extraHeaders))
	headers.Del("Content-Type")

	parts := []string{fmt.Sprintf(`curl -X %s "%s"`, method, url)}
	for _, name := range headerOrder(headers) {
		for _, value := range headers[name] {
			parts = append(parts, fmt.Sprintf(`-H "%s: %s"`, name, value))
		}
	}

	if form, ok := o.Body.(*formdata.Form); ok {
		for _, p := range form.Parts() {
			if p.IsFile() {
				parts = append(parts, fmt.Sprintf(`-F "%s=@%s"`, p.Name, p.File.Name))
			} else {
				parts = append(parts, fmt.Sprintf(`-F "%s=%s"`, p.Name, p.Value))
			}
		}
	} else if body := bodyString(o.Body); body != "" {
		parts = append(parts, "-d "+quote(body))
	}

	return strings.Join(parts, lineSeparator)
}

func extra(headers map[string]string) http.Header {
	result := make(http.Header)
	for k, v := range headers {
		if v == "" {
			continue
		}
		result[textproto.CanonicalMIMEHeaderKey(k)] = []string{v}
	}
	return result
}

// headerOrder puts Content-Type first and sorts the rest.
func headerOrder(headers http.Header) []string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		if name != "Content-Type" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := headers["Content-Type"]; ok {
		names = append([]string{"Content-Type"}, names...)
	}
	return names
}

func bodyString(body fetcher.Body) string {
	switch b := body.(type) {
	case nil:
		return ""
	case fetcher.StringBody:
		return string(b)
	case fetcher.BytesBody:
		return string(b)
	case fetcher.JSONBody:
		data, err := json.Marshal(b.Value)
		if err != nil {
			return ""
		}
		return string(data)
	}

	r, _, err := body.Open()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	return string(data)
}

// quote wraps s in single quotes for a POSIX shell.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
