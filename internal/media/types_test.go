package media

import "testing"

func TestParseContentType(t *testing.T) {
	tests := []struct {
		input string
		want  ContentType
		ok    bool
	}{
		{"movie", ContentMovie, true},
		{"Movie", ContentMovie, true},
		{" EPISODE ", ContentEpisode, true},
		{"series", ContentUnknown, false},
		{"", ContentUnknown, false},
	}
	for _, tt := range tests {
		got, ok := ParseContentType(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("ParseContentType(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestProviderKeyNormalizesProviderName(t *testing.T) {
	entry := TimelineEntry{ProviderID: "299537", ProviderName: "TMDB", Type: "movie"}
	if got := entry.ProviderKey(); got != "tmdb_299537" {
		t.Fatalf("ProviderKey() = %q, want tmdb_299537", got)
	}
}

func TestUniverseDisplayNameFallsBackToKey(t *testing.T) {
	if got := (Universe{Key: "mcu"}).DisplayName(); got != "mcu" {
		t.Fatalf("DisplayName() = %q, want mcu", got)
	}
	if got := (Universe{Key: "mcu", Name: "Marvel"}).DisplayName(); got != "Marvel" {
		t.Fatalf("DisplayName() = %q, want Marvel", got)
	}
}
