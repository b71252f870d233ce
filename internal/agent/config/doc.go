// Package config handles configuration for the asset cache agent,
// including defaults, a JSON or YAML file overlay, MANHOLE_* environment
// variables and command-line flags.
package config
