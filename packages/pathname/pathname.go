// Package pathname builds request paths from loose segments.
package pathname

import "strings"

// Join joins endpoint segments into a path with a single leading slash and no
// trailing slash. Segments may themselves contain slashes; leading dots are
// stripped from every piece so "../" cannot climb out of the base URL. When
// the last segment starts with "?" it is appended verbatim as the query
// string; a lone "?..." segment is returned unchanged.
//
//	Join("users", "/42/", "?expand=true") == "/users/42?expand=true"
func Join(endpoint ...string) string {
	if len(endpoint) == 0 {
		return ""
	}

	last := endpoint[len(endpoint)-1]
	hasQuery := strings.HasPrefix(last, "?")

	if len(endpoint) == 1 && hasQuery {
		return last
	}

	var segments []string
	for _, seg := range endpoint {
		for _, part := range strings.Split(seg, "/") {
			part = strings.TrimLeft(part, ".")
			if part == "" || strings.HasPrefix(part, "?") {
				continue
			}
			segments = append(segments, part)
		}
	}

	query := ""
	if hasQuery {
		query = last
	}

	return strings.TrimSuffix("/"+strings.Join(segments, "/")+query, "/")
}
