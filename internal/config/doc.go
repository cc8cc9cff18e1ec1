// Package config loads, normalizes, and validates curator configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file beside the config,
// and honours environment fallbacks such as JELLYFIN_API_KEY. The Config type
// centralizes every knob the sync runner and CLI need so universe files,
// library snapshots, backend credentials and run limits are discovered in one
// pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
