// Package config loads, normalizes, and validates jofsarpur configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files in either the current layout or the legacy
// one-table-per-series layout, and honours environment fallbacks such as
// JOFSARPUR_NTFY_TOPIC. The Config type centralizes every knob the CLI and
// scheduler need, from the download directory to the per-series filename
// templates.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
