// Package query encodes query strings from plain maps and tagged structs.
package query

import (
	"fmt"
	"net/url"
	"reflect"
	"time"

	qs "github.com/google/go-querystring/query"
)

// Encode encodes params as a query string without the leading "?". Keys are
// sorted. Slice and array values repeat the key once per element; nil values
// and nil elements are skipped. time.Time values use RFC 3339.
func Encode(params map[string]any) string {
	values := url.Values{}
	for key, value := range params {
		addValue(values, key, value)
	}
	return values.Encode()
}

// String is Encode with a leading "?", or "" when nothing was encoded. The
// result can be passed as the last segment to pathname.Join.
func String(params map[string]any) string {
	encoded := Encode(params)
	if encoded == "" {
		return ""
	}
	return "?" + encoded
}

// Values encodes a struct using `url:"..."` field tags.
func Values(v any) (url.Values, error) {
	values, err := qs.Values(v)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	return values, nil
}

func addValue(values url.Values, key string, value any) {
	if isNil(value) {
		return
	}

	rv := reflect.ValueOf(value)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i).Interface()
			if isNil(elem) {
				continue
			}
			values.Add(key, format(elem))
		}
		return
	}

	values.Add(key, format(value))
}

func format(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case *time.Time:
		return val.Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		return format(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
