// Package config loads, normalizes, and validates vodscan configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// VODSCAN_TEMPLATES_DIR and FFMPEG_BINARY. The Config type centralizes the
// directories, run defaults and media tooling the CLI needs.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
