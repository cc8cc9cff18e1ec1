// Package logging assembles the structured slog loggers used across curator.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so sync stages automatically
// tag log lines with the run ID, universe key and playlist name. A no-op
// logger is provided for tests and wiring code that cannot fail.
package logging
