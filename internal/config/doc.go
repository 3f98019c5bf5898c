// Package config loads, normalizes, and validates Anuvadika configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ANUVADIKA_MODEL, ANUVADIKA_S3_BUCKET and HF_TOKEN. The Config type
// centralizes every knob the CLI and pipeline need so scratch/library
// directories, toolchain binaries and per-stage timeouts are discovered in
// one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
