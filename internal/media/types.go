package media

import (
	"strings"

	"curator/internal/textutil"
)

// ContentType is the closed set of library item kinds a universe can reference.
type ContentType int

const (
	// ContentUnknown is the zero value and is never indexed or matched.
	ContentUnknown ContentType = iota
	ContentMovie
	ContentEpisode
)

// ContentTypes lists every supported type in display order.
var ContentTypes = []ContentType{ContentMovie, ContentEpisode}

// ParseContentType maps a declared type string onto the closed variant.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseContentType(value string) (ContentType, bool) {
	switch textutil.NormalizeToken(value) {
	case "movie":
		return ContentMovie, true
	case "episode":
		return ContentEpisode, true
	default:
		return ContentUnknown, false
	}
}

func (t ContentType) String() string {
	switch t {
	case ContentMovie:
		return "movie"
	case ContentEpisode:
		return "episode"
	default:
		return "unknown"
	}
}

// MarshalText renders the lowercase token so the type serializes as a string.
func (t ContentType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts any casing. Unsupported kinds decode to ContentUnknown
// so snapshots holding series or seasons still load.
func (t *ContentType) UnmarshalText(text []byte) error {
	parsed, _ := ParseContentType(string(text))
	*t = parsed
	return nil
}

// LibraryItemRef is a read-only snapshot of one library item.
type LibraryItemRef struct {
	ID          string            `json:"id"`
	Type        ContentType       `json:"type"`
	Name        string            `json:"name"`
	ProviderIDs map[string]string `json:"provider_ids,omitempty"`
}

// TimelineEntry is a single declared reference inside a universe.
type TimelineEntry struct {
	ProviderID   string `json:"providerId" yaml:"providerId"`
	ProviderName string `json:"providerName" yaml:"providerName"`
	Type         string `json:"type" yaml:"type"`
}

// ProviderKey returns "{providerName}_{providerId}" with the provider name
// normalized. The key is used for lookups and for reporting missing items.
func (e TimelineEntry) ProviderKey() string {
	return textutil.NormalizeProvider(e.ProviderName) + "_" + strings.TrimSpace(e.ProviderID)
}

// ContentType parses the declared type of the entry.
func (e TimelineEntry) ContentType() (ContentType, bool) {
	return ParseContentType(e.Type)
}

// Universe is a named, ordered viewing order. Items keeps nil elements so
// malformed input can be reported rather than silently dropped.
type Universe struct {
	Key   string           `json:"key" yaml:"key" validate:"required,nowhitespace"`
	Name  string           `json:"name" yaml:"name"`
	Items []*TimelineEntry `json:"items" yaml:"items"`
}

// DisplayName returns the universe name, falling back to the key.
func (u Universe) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return strings.TrimSpace(u.Key)
}
