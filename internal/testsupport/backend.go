package testsupport

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"curator/internal/playlist"
)

// MemoryBackend is an in-memory playlist.Backend for tests. Hooks let tests
// inject failures or latency per operation.
type MemoryBackend struct {
	mu        sync.Mutex
	nextID    int
	playlists map[string]*memoryPlaylist
	calls     map[string]int

	// FailCreate, FailReplace and FailList return an error for the named
	// playlist (or owner for FailList) when non-nil.
	FailCreate  func(name string) error
	FailReplace func(name string) error
	FailList    func(ownerID string) error
	// Delay is applied to every call and honours context cancellation.
	Delay time.Duration
}

type memoryPlaylist struct {
	playlist.Playlist
	items []string
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{playlists: map[string]*memoryPlaylist{}, calls: map[string]int{}}
}

func (b *MemoryBackend) wait(ctx context.Context, op string) error {
	b.mu.Lock()
	b.calls[op]++
	b.mu.Unlock()
	if b.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(b.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ListPlaylists implements playlist.Backend.
func (b *MemoryBackend) ListPlaylists(ctx context.Context, ownerID string) ([]playlist.Playlist, error) {
	if err := b.wait(ctx, "list"); err != nil {
		return nil, err
	}
	if b.FailList != nil {
		if err := b.FailList(ownerID); err != nil {
			return nil, err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []playlist.Playlist
	for _, p := range b.playlists {
		if p.OwnerID == ownerID {
			out = append(out, p.Playlist)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreatePlaylist implements playlist.Backend.
func (b *MemoryBackend) CreatePlaylist(ctx context.Context, ownerID, name string, ids []string) (playlist.Playlist, error) {
	if err := b.wait(ctx, "create"); err != nil {
		return playlist.Playlist{}, err
	}
	if b.FailCreate != nil {
		if err := b.FailCreate(name); err != nil {
			return playlist.Playlist{}, err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	p := &memoryPlaylist{
		Playlist: playlist.Playlist{ID: fmt.Sprintf("pl-%03d", b.nextID), Name: name, OwnerID: ownerID, ItemCount: len(ids)},
		items:    append([]string(nil), ids...),
	}
	b.playlists[p.ID] = p
	return p.Playlist, nil
}

// ReplaceItems implements playlist.Backend.
func (b *MemoryBackend) ReplaceItems(ctx context.Context, ownerID, playlistID string, ids []string) error {
	if err := b.wait(ctx, "replace"); err != nil {
		return err
	}
	b.mu.Lock()
	p, ok := b.playlists[playlistID]
	b.mu.Unlock()
	if !ok || p.OwnerID != ownerID {
		return fmt.Errorf("playlist %s not found", playlistID)
	}
	if b.FailReplace != nil {
		if err := b.FailReplace(p.Name); err != nil {
			return err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p.items = append([]string(nil), ids...)
	p.ItemCount = len(ids)
	return nil
}

// Seed inserts a playlist directly, bypassing hooks.
func (b *MemoryBackend) Seed(ownerID, name string, ids ...string) playlist.Playlist {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	p := &memoryPlaylist{
		Playlist: playlist.Playlist{ID: fmt.Sprintf("pl-%03d", b.nextID), Name: name, OwnerID: ownerID, ItemCount: len(ids)},
		items:    append([]string(nil), ids...),
	}
	b.playlists[p.ID] = p
	return p.Playlist
}

// Named returns every playlist called name for ownerID.
func (b *MemoryBackend) Named(ownerID, name string) []playlist.Playlist {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []playlist.Playlist
	for _, p := range b.playlists {
		if p.OwnerID == ownerID && p.Name == name {
			out = append(out, p.Playlist)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Items returns the ordered membership of a playlist.
func (b *MemoryBackend) Items(playlistID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.playlists[playlistID]; ok {
		return append([]string(nil), p.items...)
	}
	return nil
}

// Calls returns how often an operation ("list", "create", "replace") ran.
func (b *MemoryBackend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// Len returns the total number of playlists.
func (b *MemoryBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.playlists)
}
