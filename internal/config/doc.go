// Package config loads, normalizes, and validates torrup's TOML
// configuration.
package config
