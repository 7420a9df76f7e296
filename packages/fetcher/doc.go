// Package fetcher implements the request-execution core of fetchkit.
//
// A Fetcher is configured once with a base URL, default headers and an
// optional Interceptor. Each call to Execute:
//   - Joins the base URL and the given path
//   - Merges default and per-call headers (per-call wins, case-insensitive)
//   - Runs the Interceptor, whose result replaces the request options
//   - Performs exactly one round trip through the configured Doer
//   - Decodes the body as JSON or text depending on the response content type
//   - Returns an *APIError for non-2xx/3xx statuses and nil for 204
//
// Interceptors are built with NewInterceptor (layering a Static or Computed
// partial over the incoming options) and chained with Compose.
package fetcher
