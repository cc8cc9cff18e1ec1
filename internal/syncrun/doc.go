// Package syncrun executes one end-to-end sync run.
//
// A run takes the run lock, loads the universe collection, fetches the
// library snapshot under the library timeout, builds the content index,
// classifies and matches every selected universe, reconciles one playlist per
// universe and finally records the run in the history store and the metrics
// textfile. Services wires the configured library source and playlist
// backend (Jellyfin or the local SQLite store).
package syncrun
