// Package config loads, normalizes, and validates scrollback configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SCROLLBACK_JUDGE_API_KEY and SCROLLBACK_OCR_URL. The Config type centralizes
// every knob the extraction, deduplication and refinement stages need.
//
// Invalid thresholds are reported by Validate and are fatal: callers must not
// start a run with a configuration that failed to load.
package config
