// Package config handles configuration management for modsync.
// It layers embedded defaults, an optional TOML file, MODSYNC_ environment
// variables and command-line flags, and hands the result to components as
// an immutable Config value.
package config
