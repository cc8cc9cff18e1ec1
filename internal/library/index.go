package library

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"curator/internal/logging"
	"curator/internal/media"
	"curator/internal/textutil"
)

const defaultChunkSize = 2048

// Key identifies one indexed provider reference.
type Key struct {
	Type       media.ContentType
	Provider   string
	ProviderID string
}

// NewKey normalizes the provider name and ID the same way Build does.
func NewKey(providerID, providerName string, contentType media.ContentType) Key {
	return Key{
		Type:       contentType,
		Provider:   textutil.NormalizeProvider(providerName),
		ProviderID: strings.TrimSpace(providerID),
	}
}

// Options tunes index construction.
type Options struct {
	// Workers bounds the number of chunks processed concurrently. Zero uses GOMAXPROCS.
	Workers int
	// ChunkSize is the number of items per worker chunk. Zero uses a default.
	ChunkSize int
	Logger    *slog.Logger
}

// BuildStats summarizes a Build pass.
type BuildStats struct {
	ItemsIndexed int            `json:"items_indexed"`
	ItemsSkipped int            `json:"items_skipped"`
	Keys         int            `json:"keys"`
	Collisions   int            `json:"collisions"`
	ByProvider   map[string]int `json:"by_provider"`
}

// Index is an immutable lookup table from provider references to library
// item identities. It is safe for concurrent use once built.
type Index struct {
	entries   map[Key]string
	providers []string
}

type pair struct {
	key Key
	id  string
}

type chunkResult struct {
	pairs   []pair
	indexed int
	skipped int
}

// Build indexes items in a single pass. Items are processed in chunks on
// several goroutines and merged in input order, so when two items claim the
// same key the earlier item wins exactly as it would sequentially. The only
// error is context cancellation.
func Build(ctx context.Context, items []media.LibraryItemRef, opts Options) (*Index, BuildStats, error) {
	logger := logging.NewComponentLogger(opts.Logger, "index")
	logger = logging.WithContext(ctx, logger)

	stats := BuildStats{ByProvider: map[string]int{}}
	idx := &Index{entries: map[Key]string{}}

	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	if len(items) == 0 {
		logging.WarnWithContext(logger, "library snapshot is empty", "index_empty",
			logging.String(logging.FieldErrorHint, "check the library source; every universe entry will be reported missing"),
			logging.String(logging.FieldImpact, "no playlist items can be matched"),
		)
		return idx, stats, nil
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	chunkCount := (len(items) + chunkSize - 1) / chunkSize
	results := make([]chunkResult, chunkCount)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < chunkCount; i++ {
		start := i * chunkSize
		end := min(start+chunkSize, len(items))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = indexChunk(items[start:end])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	for _, res := range results {
		stats.ItemsIndexed += res.indexed
		stats.ItemsSkipped += res.skipped
		for _, p := range res.pairs {
			existing, ok := idx.entries[p.key]
			if ok {
				if existing != p.id {
					stats.Collisions++
					logger.Debug("provider reference already indexed",
						logging.String("provider_key", p.key.Provider+"_"+p.key.ProviderID),
						logging.String("content_type", p.key.Type.String()),
						logging.String("kept_id", existing),
						logging.String("dropped_id", p.id),
					)
				}
				continue
			}
			idx.entries[p.key] = p.id
			stats.ByProvider[p.key.Provider]++
		}
	}
	stats.Keys = len(idx.entries)

	idx.providers = make([]string, 0, len(stats.ByProvider))
	for provider := range stats.ByProvider {
		idx.providers = append(idx.providers, provider)
	}
	sort.Strings(idx.providers)

	if stats.Collisions > 0 {
		logging.WarnWithContext(logger, "duplicate provider references in library", "index_collision",
			logging.Int("collisions", stats.Collisions),
			logging.String(logging.FieldErrorHint, "the first library item wins; remove duplicate provider ids from the library"),
			logging.String(logging.FieldImpact, "some entries resolve to the first of several library items"),
		)
	}
	logger.Info("library indexed",
		logging.String(logging.FieldEventType, "index_built"),
		logging.Int("items_indexed", stats.ItemsIndexed),
		logging.Int("items_skipped", stats.ItemsSkipped),
		logging.Int("keys", stats.Keys),
	)
	return idx, stats, nil
}

func indexChunk(items []media.LibraryItemRef) chunkResult {
	var res chunkResult
	for _, item := range items {
		if item.Type == media.ContentUnknown || strings.TrimSpace(item.ID) == "" {
			res.skipped++
			continue
		}
		// Map iteration order is random; sort providers so the pair order
		// inside one item is stable across runs.
		names := make([]string, 0, len(item.ProviderIDs))
		for name := range item.ProviderIDs {
			names = append(names, name)
		}
		sort.Strings(names)

		added := 0
		for _, name := range names {
			key := NewKey(item.ProviderIDs[name], name, item.Type)
			if key.Provider == "" || key.ProviderID == "" {
				continue
			}
			res.pairs = append(res.pairs, pair{key: key, id: item.ID})
			added++
		}
		if added == 0 {
			res.skipped++
			continue
		}
		res.indexed++
	}
	return res
}

// Lookup resolves one provider reference.
func (idx *Index) Lookup(providerID, providerName string, contentType media.ContentType) (string, bool) {
	if idx == nil || contentType == media.ContentUnknown {
		return "", false
	}
	id, ok := idx.entries[NewKey(providerID, providerName, contentType)]
	return id, ok
}

// LookupEntry resolves a timeline entry by its declared type and provider key.
func (idx *Index) LookupEntry(entry media.TimelineEntry) (string, bool) {
	contentType, ok := entry.ContentType()
	if !ok {
		return "", false
	}
	return idx.Lookup(entry.ProviderID, entry.ProviderName, contentType)
}

// BatchLookup resolves many entries at once. The result holds only matched
// entries and agrees with LookupEntry for every input.
func (idx *Index) BatchLookup(entries []*media.TimelineEntry) map[media.TimelineEntry]string {
	out := make(map[media.TimelineEntry]string, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		if id, ok := idx.LookupEntry(*entry); ok {
			out[*entry] = id
		}
	}
	return out
}

// Len returns the number of indexed keys.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Providers returns the sorted normalized provider names present in the index.
func (idx *Index) Providers() []string {
	if idx == nil {
		return nil
	}
	return append([]string(nil), idx.providers...)
}
