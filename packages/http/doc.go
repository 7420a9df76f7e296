// Package http provides the transport used by fetchkit to perform one HTTP round trip.
//
// It wraps the standard library's http package with:
//   - Configurable timeouts, proxy and TLS verification
//   - Per-request redirect modes (follow, manual, error)
//   - Per-request credentials modes backed by a cookie jar
//   - Fully materialized responses (status, headers, body, duration)
package http
