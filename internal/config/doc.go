// Package config loads, normalizes, and validates reelforge configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// REELFORGE_WORK_DIR and WHISPER_BIN. Every timeout, encoding profile, and
// catalog naming rule the pipeline relies on is resolved here in one pass so
// downstream code receives sanitized values and clear validation errors.
package config
