// Package services defines shared utilities consumed by the sync stages and
// the external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, universe keys, playlist names and
//     stage names for logging.
//   - Subpackages for the media servers curator talks to (jellyfin).
//
// Fault classification lives in internal/faults so the core packages can use
// it without importing any integration.
package services
