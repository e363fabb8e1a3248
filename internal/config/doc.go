// Package config loads, normalizes, and validates clipset configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CLIPSET_ARCHIVE_URL. The Config type centralizes every knob the builder,
// sampler, and CLI need: where splits are materialized, how archive entries
// map to class labels, how many classes and files per split are selected, and
// how frames are sampled.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
