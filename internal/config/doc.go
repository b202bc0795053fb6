// Package config loads, normalizes, and validates jukebox configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the daemon and CLI need: where albums and spoken-number clips live, how the
// audio engine is launched, which input layout drives playback, and where
// state, history and logs are written.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
