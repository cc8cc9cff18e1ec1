// Package library builds the read-only content index used to resolve
// provider references against a media library snapshot.
//
// An Index maps (content type, provider name, provider ID) onto the library
// item identity. It is built once per sync run from a snapshot, either a JSON
// file on disk (FileSource) or a media server listing, and is safe for
// concurrent reads afterwards.
package library
