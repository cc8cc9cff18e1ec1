// Package media defines the value types that flow through a sync run:
// library item references read from the media server, timeline entries and
// universes declared by the user, and the closed ContentType variant shared
// by the index and the classifier.
//
// Values in this package are treated as immutable once constructed. Nothing
// here performs I/O.
package media
