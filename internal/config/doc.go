// Package config loads, defaults, and validates the TOML configuration for
// the retitle CLI. Paths are tilde-expanded and normalized to absolute form
// during Load so downstream packages never handle raw user input.
package config
