// Package config handles configuration loading and management for fetchkit.
//
// Settings are read from the first of .fetchkit.json, fetchkit.json,
// .fetchkit.yaml or .fetchkit.yml found in the working directory, layered
// over DefaultConfig. Command-line flags are merged on top with Merge.
package config
