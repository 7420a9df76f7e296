// Package assertions checks responses for the fetchkit CLI.
//
// It covers three flags:
//   - --query selects part of a JSON body with a gjson path (Query)
//   - --schema validates a JSON body against a JSON schema file (ValidateSchema)
//   - --expect evaluates expressions like `status == 200`,
//     `header.Content-Type contains json` or `body.items length 3` (Parse, Evaluator)
package assertions
