// Package main hosts the curator CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration once, then hands off to
// the internal packages: sync runs one reconciliation through syncrun,
// validate checks universe definitions without touching any backend, history
// reads past runs from the SQLite store and config scaffolds or checks the
// TOML configuration. Rendering (tables, colors, JSON) lives here; the sync
// semantics live in internal/.
package main
