// Package jellyfin talks to a Jellyfin server over its REST API.
//
// Client serves two roles during a sync: it pages the server's movie and
// episode library into media.LibraryItemRef values for the content index, and
// it implements playlist.Backend so the reconciler can list, create and
// rewrite playlists owned by a Jellyfin user. Every request passes through a
// token-bucket rate limiter and a circuit breaker; once the breaker opens the
// server counts as lost and calls fail with faults.ErrSystemFailure.
package jellyfin
