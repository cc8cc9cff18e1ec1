// Package universe loads universe definitions from disk.
//
// Files are JSON, JSONC (comments and trailing commas allowed) or YAML,
// chosen by extension, and share one shape:
//
//	{"universes": [{"key": "mcu", "name": "Marvel Cinematic Universe",
//	  "items": [{"providerId": "299537", "providerName": "tmdb", "type": "movie"}]}]}
//
// The loader enforces that every key is present, whitespace free and unique.
// Item-level problems are left for the classifier to report per universe.
package universe
