// Package env resolves {{variable}} placeholders for the fetchkit CLI.
//
// Variables come from .env files (LoadDotEnv), --var flags and the process
// environment ({{$NAME}}); {{uuid()}}-style helpers are evaluated by
// Functions.
package env
