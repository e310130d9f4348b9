// Package config loads, normalizes, and validates scout configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SCOUT_LLM_API_KEY. Always obtain settings through this package so
// downstream code receives sanitized paths, canonical log formats, and
// clear validation errors.
package config
