// Package classify validates universe definitions and describes their
// content-type composition before playlists are assembled.
//
// Validation problems are returned as data in ValidationResult so a batch can
// report them and move on; only cancellation is returned as an error.
package classify
