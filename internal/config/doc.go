// Package config loads, normalizes, and validates stylesync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// STYLESYNC_API_TOKEN. The Config type centralizes every knob the daemon and
// CLI need, so the managed upload root, the record store location, and the
// upload limits are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical backend names, and clear validation errors.
package config
