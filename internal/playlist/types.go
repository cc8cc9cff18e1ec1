package playlist

import (
	"context"
	"errors"

	"curator/internal/faults"
)

// ErrRunHalted is returned by BatchCreate when a fault stopped the remaining
// universes from being scheduled.
var ErrRunHalted = errors.New("sync run halted")

// Playlist describes one playlist held by a backend.
type Playlist struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"owner_id"`
	ItemCount int    `json:"item_count"`
}

// Backend is the playlist capability the reconciler drives.
type Backend interface {
	ListPlaylists(ctx context.Context, ownerID string) ([]Playlist, error)
	CreatePlaylist(ctx context.Context, ownerID, name string, ids []string) (Playlist, error)
	ReplaceItems(ctx context.Context, ownerID, playlistID string, ids []string) error
}

// Action is the outcome of syncing one playlist.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
	ActionFailed  Action = "failed"
	ActionNotRun  Action = "not_run"
)

// Actions lists every action in report order.
var Actions = []Action{ActionCreated, ActionUpdated, ActionSkipped, ActionFailed, ActionNotRun}

// SyncResult reports what happened to one playlist.
type SyncResult struct {
	Universe     string         `json:"universe,omitempty"`
	PlaylistName string         `json:"playlist_name"`
	PlaylistID   string         `json:"playlist_id,omitempty"`
	Action       Action         `json:"action"`
	FinalCount   int            `json:"final_count"`
	Missing      []string       `json:"missing,omitempty"`
	DryRun       bool           `json:"dry_run,omitempty"`
	Fault        *faults.Record `json:"fault,omitempty"`
}

// Stats aggregates reconciler activity.
type Stats struct {
	PlaylistsTouched int            `json:"playlists_touched"`
	ItemsWritten     int            `json:"items_written"`
	ByAction         map[Action]int `json:"by_action"`
}
