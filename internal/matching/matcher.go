package matching

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"curator/internal/library"
	"curator/internal/media"
)

const defaultChunkSize = 256

// Match pairs a declared entry with the library identity it resolved to.
type Match struct {
	Entry media.TimelineEntry `json:"entry"`
	ID    string              `json:"id"`
}

// Result is the outcome of matching one ordered entry list.
type Result struct {
	Matches      []Match  `json:"matches"`
	MatchedIDs   []string `json:"matched_ids"`
	Missing      []string `json:"missing"`
	TotalCount   int      `json:"total_count"`
	MatchedCount int      `json:"matched_count"`
	MissingCount int      `json:"missing_count"`
}

// Matcher resolves entries against a single index.
type Matcher struct {
	index     *library.Index
	workers   int
	chunkSize int
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithWorkers bounds the number of concurrent lookup chunks.
func WithWorkers(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithChunkSize sets how many entries one worker resolves at a time.
func WithChunkSize(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.chunkSize = n
		}
	}
}

// New returns a Matcher over index.
func New(index *library.Index, opts ...Option) *Matcher {
	m := &Matcher{index: index, workers: runtime.GOMAXPROCS(0), chunkSize: defaultChunkSize}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MatchEntry resolves one entry by its provider key and declared type.
func (m *Matcher) MatchEntry(entry media.TimelineEntry) (string, bool) {
	return m.index.LookupEntry(entry)
}

type slot struct {
	id string
	ok bool
}

// MatchAll resolves entries in order. Nil entries are neither matched nor
// reported missing. Lookups run in chunks across workers; each result lands in
// the slot of its input position so the output order is exact. The only error
// is context cancellation.
func (m *Matcher) MatchAll(ctx context.Context, entries []*media.TimelineEntry) (Result, error) {
	res := Result{
		Matches:    []Match{},
		MatchedIDs: []string{},
		Missing:    []string{},
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	slots := make([]slot, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for start := 0; start < len(entries); start += m.chunkSize {
		end := min(start+m.chunkSize, len(entries))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				if entries[i] == nil {
					continue
				}
				id, ok := m.MatchEntry(*entries[i])
				slots[i] = slot{id: id, ok: ok}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	for i, entry := range entries {
		if entry == nil {
			continue
		}
		res.TotalCount++
		if slots[i].ok {
			res.Matches = append(res.Matches, Match{Entry: *entry, ID: slots[i].id})
			res.MatchedIDs = append(res.MatchedIDs, slots[i].id)
			continue
		}
		res.Missing = append(res.Missing, entry.ProviderKey())
	}
	res.MatchedCount = len(res.MatchedIDs)
	res.MissingCount = len(res.Missing)
	return res, nil
}
