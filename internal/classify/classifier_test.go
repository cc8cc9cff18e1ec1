package classify_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"curator/internal/classify"
	"curator/internal/library"
	"curator/internal/matching"
	"curator/internal/media"
)

func entry(provider, id, contentType string) *media.TimelineEntry {
	return &media.TimelineEntry{ProviderName: provider, ProviderID: id, Type: contentType}
}

func newClassifier(t *testing.T, items ...media.LibraryItemRef) *classify.Classifier {
	t.Helper()
	idx, _, err := library.Build(context.Background(), items, library.Options{})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	return classify.New(matching.New(idx), classify.Options{})
}

func TestValidate(t *testing.T) {
	c := classify.New(nil, classify.Options{})
	tests := []struct {
		name    string
		entries []*media.TimelineEntry
		valid   bool
		errPart string
	}{
		{name: "nil list", entries: nil, errPart: "null"},
		{name: "empty list", entries: []*media.TimelineEntry{}, valid: true},
		{name: "valid mixed", entries: []*media.TimelineEntry{entry("tmdb", "1", "movie"), entry("TVDB", "2", "Episode")}, valid: true},
		{name: "nil entry", entries: []*media.TimelineEntry{entry("tmdb", "1", "movie"), nil}, errPart: "item 2 is null"},
		{name: "missing id", entries: []*media.TimelineEntry{entry("tmdb", " ", "movie")}, errPart: "providerId is required"},
		{name: "missing provider", entries: []*media.TimelineEntry{entry("", "1", "movie")}, errPart: "providerName is required"},
		{name: "missing type", entries: []*media.TimelineEntry{entry("tmdb", "1", "")}, errPart: "type is required"},
		{name: "unsupported provider", entries: []*media.TimelineEntry{entry("anidb", "1", "movie")}, errPart: `provider "anidb" is not supported`},
		{name: "unsupported type", entries: []*media.TimelineEntry{entry("tmdb", "1", "series")}, errPart: `type "series" is not supported`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Validate(tt.entries)
			if res.IsValid != tt.valid {
				t.Fatalf("IsValid = %v, want %v (errors %v)", res.IsValid, tt.valid, res.Errors)
			}
			if tt.errPart == "" {
				if len(res.Errors) != 0 {
					t.Fatalf("expected no errors, got %v", res.Errors)
				}
				return
			}
			if !strings.Contains(strings.Join(res.Errors, "\n"), tt.errPart) {
				t.Fatalf("expected error containing %q, got %v", tt.errPart, res.Errors)
			}
		})
	}
}

func TestValidateHonoursConfiguredProviders(t *testing.T) {
	c := classify.New(nil, classify.Options{SupportedProviders: []string{"AniDB"}})
	if res := c.Validate([]*media.TimelineEntry{entry("anidb", "1", "episode")}); !res.IsValid {
		t.Fatalf("expected anidb accepted, got %v", res.Errors)
	}
	if res := c.Validate([]*media.TimelineEntry{entry("tmdb", "1", "movie")}); res.IsValid {
		t.Fatal("expected tmdb rejected when not configured")
	}
}

func TestAnalyzeTypesIsMixed(t *testing.T) {
	tests := []struct {
		name    string
		entries []*media.TimelineEntry
		mixed   bool
		total   int
	}{
		{name: "empty", entries: nil, mixed: false, total: 0},
		{name: "movies only", entries: []*media.TimelineEntry{entry("tmdb", "1", "movie"), entry("tmdb", "2", "MOVIE")}, mixed: false, total: 2},
		{name: "mixed", entries: []*media.TimelineEntry{entry("tmdb", "1", "Movie"), entry("tvdb", "2", "episode")}, mixed: true, total: 2},
		{name: "nil skipped", entries: []*media.TimelineEntry{nil, entry("tvdb", "2", "episode"), nil}, mixed: false, total: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify.AnalyzeTypes(tt.entries)
			if got.IsMixed != tt.mixed || got.Total != tt.total {
				t.Fatalf("got mixed=%v total=%d, want mixed=%v total=%d", got.IsMixed, got.Total, tt.mixed, tt.total)
			}
		})
	}

	counts := classify.AnalyzeTypes([]*media.TimelineEntry{entry("tmdb", "1", "Movie"), entry("tmdb", "2", "movie")}).Counts
	if counts["movie"] != 2 {
		t.Fatalf("expected case-insensitive counts, got %v", counts)
	}
}

func TestProcessUniverseBucketsAndMissing(t *testing.T) {
	c := newClassifier(t,
		media.LibraryItemRef{ID: "iron-man", Type: media.ContentMovie, ProviderIDs: map[string]string{"Tmdb": "1726"}},
		media.LibraryItemRef{ID: "wv-1", Type: media.ContentEpisode, ProviderIDs: map[string]string{"Tvdb": "7840"}},
		media.LibraryItemRef{ID: "thor", Type: media.ContentMovie, ProviderIDs: map[string]string{"Tmdb": "10195"}},
	)
	universe := media.Universe{
		Key:  "mcu",
		Name: "Marvel Cinematic Universe",
		Items: []*media.TimelineEntry{
			entry("tmdb", "1726", "movie"),
			entry("tvdb", "7840", "episode"),
			entry("tmdb", "299537", "movie"),
			entry("tmdb", "10195", "movie"),
		},
	}

	res, err := c.ProcessUniverse(context.Background(), universe)
	if err != nil {
		t.Fatalf("ProcessUniverse returned error: %v", err)
	}
	if !res.Valid() || res.Match == nil {
		t.Fatalf("expected valid matched result, got %+v", res)
	}
	if got := fmt.Sprint(res.MatchedIDs()); got != "[iron-man wv-1 thor]" {
		t.Fatalf("unexpected matched order %s", got)
	}
	if got := fmt.Sprint(res.Movies); got != "[iron-man thor]" {
		t.Fatalf("unexpected movie bucket %s", got)
	}
	if got := fmt.Sprint(res.Episodes); got != "[wv-1]" {
		t.Fatalf("unexpected episode bucket %s", got)
	}
	if len(res.Missing()) != 1 || res.Missing()[0] != "tmdb_299537" {
		t.Fatalf("expected tmdb_299537 missing, got %v", res.Missing())
	}
	if res.Match.MatchedCount != 3 || res.Match.MissingCount != 1 {
		t.Fatalf("expected N-M matches, got %+v", res.Match)
	}
	if !res.Analysis.IsMixed {
		t.Fatal("expected mixed universe")
	}
}

func TestProcessUniverseInvalidSkipsMatching(t *testing.T) {
	c := newClassifier(t)
	res, err := c.ProcessUniverse(context.Background(), media.Universe{Key: "broken", Name: "Broken"})
	if err != nil {
		t.Fatalf("ProcessUniverse returned error: %v", err)
	}
	if res.Valid() || res.Match != nil {
		t.Fatalf("expected invalid unmatched result, got %+v", res)
	}
	if res.Key != "broken" || res.Name != "Broken" {
		t.Fatalf("expected key and name carried, got %q %q", res.Key, res.Name)
	}
	if res.MatchedIDs() != nil {
		t.Fatal("expected nil identities for invalid universe")
	}
}

func TestProcessAllStopsOnCancellation(t *testing.T) {
	c := newClassifier(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ProcessAll(ctx, []media.Universe{{Key: "a", Items: []*media.TimelineEntry{}}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
