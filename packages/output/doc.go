// Package output renders one executed request for the fetchkit CLI: status
// line and timing, API errors with the server's message, schema violations,
// --expect results and the decoded body. ConsoleFormatter writes colored
// text; JSONFormatter writes a single JSON document.
package output
