// Package textutil provides the small text normalizations shared by the
// index, the classifier and the CLI.
//
// Provider names arrive from universe files ("TMDB", "tmdb", " Tmdb ") and from
// media servers ("Tmdb") in whatever case their authors chose, so every
// comparison goes through NormalizeProvider. Labels shown to users go through
// Label so content types and providers render consistently.
package textutil
