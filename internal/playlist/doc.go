// Package playlist reconciles universe playlists on a playlist backend.
//
// CreateOrUpdate converges one named playlist onto an ordered identity list:
// an existing playlist has its membership replaced, otherwise one is created.
// BatchCreate applies that to many universes, classifying and recording each
// failure without stopping the batch unless the playlist backend is lost.
//
// Writes to the same playlist name are serialized; distinct names may be
// written concurrently. Every backend call is bounded by the write timeout.
package playlist
