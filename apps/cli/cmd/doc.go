// Package cmd implements the fetchkit CLI commands using Cobra.
//
// Available commands:
//   - request: Send a request through the fetcher pipeline and print the result
//   - curl: Print the equivalent curl command without sending anything
//   - replay: Parse a curl command and send it
//   - init: Write a starter .fetchkit.yaml
//   - version: Show fetchkit version information
package cmd
