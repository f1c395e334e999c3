// Package config loads, normalizes, and validates hookreel's TOML
// configuration.
//
// Load resolves the file (explicit path, ~/.config/hookreel/config.toml, then
// ./hookreel.toml), applies defaults, expands paths, lets HOOKREEL_*_API_KEY
// environment variables override file keys, and validates the result.
// Validation errors name the offending key.
package config
