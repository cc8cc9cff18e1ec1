// Package store persists local playlists and sync run history in SQLite.
//
// Store implements the playlist backend used when sync.backend is "local":
// playlists live in the state directory with their ordered membership. The
// same database keeps one row per sync run so `curator history` can show what
// earlier runs did.
//
// The schema is embedded and versioned; a mismatched database is reported
// with ErrSchemaMismatch instead of being migrated in place.
package store
