package matching_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"curator/internal/library"
	"curator/internal/matching"
	"curator/internal/media"
)

func buildIndex(t *testing.T, items ...media.LibraryItemRef) *library.Index {
	t.Helper()
	idx, _, err := library.Build(context.Background(), items, library.Options{})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	return idx
}

func ref(id string, contentType media.ContentType, provider, providerID string) media.LibraryItemRef {
	return media.LibraryItemRef{ID: id, Type: contentType, ProviderIDs: map[string]string{provider: providerID}}
}

func entry(provider, id, contentType string) *media.TimelineEntry {
	return &media.TimelineEntry{ProviderName: provider, ProviderID: id, Type: contentType}
}

func TestMatchAllPreservesOrderAndReportsMissing(t *testing.T) {
	idx := buildIndex(t,
		ref("iron-man", media.ContentMovie, "Tmdb", "1726"),
		ref("wandavision-1", media.ContentEpisode, "Tvdb", "7840"),
		ref("thor", media.ContentMovie, "Tmdb", "10195"),
	)
	m := matching.New(idx)

	entries := []*media.TimelineEntry{
		entry("tmdb", "10195", "movie"),
		entry("tmdb", "299537", "movie"),
		entry("tvdb", "7840", "episode"),
		nil,
		entry("TMDB", "1726", "Movie"),
	}
	res, err := m.MatchAll(context.Background(), entries)
	if err != nil {
		t.Fatalf("MatchAll returned error: %v", err)
	}

	want := []string{"thor", "wandavision-1", "iron-man"}
	if fmt.Sprint(res.MatchedIDs) != fmt.Sprint(want) {
		t.Fatalf("unexpected order: got %v want %v", res.MatchedIDs, want)
	}
	if len(res.Missing) != 1 || res.Missing[0] != "tmdb_299537" {
		t.Fatalf("expected tmdb_299537 missing, got %v", res.Missing)
	}
	if res.TotalCount != 4 || res.MatchedCount != 3 || res.MissingCount != 1 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	if res.Matches[2].Entry.ProviderID != "1726" {
		t.Fatalf("expected match entries in order, got %+v", res.Matches)
	}
}

func TestMatchAllPreservesDuplicates(t *testing.T) {
	idx := buildIndex(t, ref("a", media.ContentMovie, "tmdb", "1"))
	res, err := matching.New(idx).MatchAll(context.Background(), []*media.TimelineEntry{
		entry("tmdb", "1", "movie"),
		entry("tmdb", "1", "movie"),
	})
	if err != nil {
		t.Fatalf("MatchAll returned error: %v", err)
	}
	if len(res.MatchedIDs) != 2 {
		t.Fatalf("expected duplicate identities kept, got %v", res.MatchedIDs)
	}
}

func TestMatchEntryAgreesWithBatchLookup(t *testing.T) {
	idx := buildIndex(t,
		ref("m1", media.ContentMovie, "tmdb", "1"),
		ref("e1", media.ContentEpisode, "tvdb", "2"),
	)
	m := matching.New(idx)
	entries := []*media.TimelineEntry{
		entry("tmdb", "1", "movie"),
		entry("tvdb", "2", "episode"),
		entry("tvdb", "2", "movie"),
		entry("imdb", "1", "movie"),
	}
	batch := idx.BatchLookup(entries)
	for _, e := range entries {
		direct, ok := m.MatchEntry(*e)
		batched, batchOK := batch[*e]
		if direct != batched || ok != batchOK {
			t.Fatalf("entry %+v: direct=%q/%v batch=%q/%v", *e, direct, ok, batched, batchOK)
		}
	}
}

func TestMatchAllManyChunksKeepsOrder(t *testing.T) {
	items := make([]media.LibraryItemRef, 0, 300)
	entries := make([]*media.TimelineEntry, 0, 300)
	for i := range 300 {
		items = append(items, ref(fmt.Sprintf("id-%03d", i), media.ContentMovie, "tmdb", fmt.Sprint(i)))
		entries = append(entries, entry("tmdb", fmt.Sprint(299-i), "movie"))
	}
	res, err := matching.New(buildIndex(t, items...), matching.WithWorkers(4), matching.WithChunkSize(9)).
		MatchAll(context.Background(), entries)
	if err != nil {
		t.Fatalf("MatchAll returned error: %v", err)
	}
	for i, id := range res.MatchedIDs {
		if want := fmt.Sprintf("id-%03d", 299-i); id != want {
			t.Fatalf("position %d: got %q want %q", i, id, want)
		}
	}
}

func TestMatchAllEmptyInput(t *testing.T) {
	res, err := matching.New(buildIndex(t)).MatchAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("MatchAll returned error: %v", err)
	}
	if res.TotalCount != 0 || res.MatchedIDs == nil || res.Missing == nil {
		t.Fatalf("expected empty non-nil result, got %+v", res)
	}
}

func TestMatchAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := matching.New(buildIndex(t)).MatchAll(ctx, []*media.TimelineEntry{entry("tmdb", "1", "movie")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
