// Package config loads, normalizes, and validates clipgate configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CLIPGATE_EMBEDDING_API_KEY. The Config type centralizes every knob the
// daemon and CLI need: data/scratch/artifact directories, the answer-gate
// threshold and attempt cap, capture devices, and the ffmpeg engine settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
