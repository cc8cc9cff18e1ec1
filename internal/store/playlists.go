package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"curator/internal/faults"
	"curator/internal/playlist"
)

var _ playlist.Backend = (*Store)(nil)

// ListPlaylists returns the playlists owned by ownerID, oldest first.
func (s *Store) ListPlaylists(ctx context.Context, ownerID string) ([]playlist.Playlist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.owner_id, COUNT(i.item_id)
		FROM playlists p
		LEFT JOIN playlist_items i ON i.playlist_id = p.id
		WHERE p.owner_id = ?
		GROUP BY p.id
		ORDER BY p.created_at, p.rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	var out []playlist.Playlist
	for rows.Next() {
		var p playlist.Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.OwnerID, &p.ItemCount); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	return out, nil
}

// CreatePlaylist stores a new playlist with ids in order.
func (s *Store) CreatePlaylist(ctx context.Context, ownerID, name string, ids []string) (playlist.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return playlist.Playlist{}, faults.Wrap(faults.ErrInvalidInput, "playlist", "create playlist", "name is empty", nil)
	}
	p := playlist.Playlist{ID: uuid.NewString(), Name: name, OwnerID: ownerID, ItemCount: len(ids)}
	now := s.timestamp()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO playlists (id, owner_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			p.ID, ownerID, name, now, now,
		); err != nil {
			return fmt.Errorf("insert playlist: %w", err)
		}
		return insertItems(ctx, tx, p.ID, ids)
	})
	if err != nil {
		return playlist.Playlist{}, err
	}
	return p, nil
}

// ReplaceItems overwrites the membership of an existing playlist.
func (s *Store) ReplaceItems(ctx context.Context, ownerID, playlistID string, ids []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var owner string
		err := tx.QueryRowContext(ctx, "SELECT owner_id FROM playlists WHERE id = ?", playlistID).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			return faults.Wrap(faults.ErrNotFound, playlistID, "replace items", "playlist does not exist", nil)
		}
		if err != nil {
			return fmt.Errorf("load playlist: %w", err)
		}
		if owner != ownerID {
			return faults.Wrap(faults.ErrPermissionDenied, playlistID, "replace items", "playlist belongs to another owner", nil)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM playlist_items WHERE playlist_id = ?", playlistID); err != nil {
			return fmt.Errorf("clear playlist items: %w", err)
		}
		if err := insertItems(ctx, tx, playlistID, ids); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE playlists SET updated_at = ? WHERE id = ?", s.timestamp(), playlistID); err != nil {
			return fmt.Errorf("touch playlist: %w", err)
		}
		return nil
	})
}

func insertItems(ctx context.Context, tx *sql.Tx, playlistID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO playlist_items (playlist_id, position, item_id) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare item insert: %w", err)
	}
	defer stmt.Close()
	for pos, id := range ids {
		if _, err := stmt.ExecContext(ctx, playlistID, pos, id); err != nil {
			return fmt.Errorf("insert playlist item %d: %w", pos, err)
		}
	}
	return nil
}

// PlaylistItems returns the ordered membership of a playlist.
func (s *Store) PlaylistItems(ctx context.Context, playlistID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT item_id FROM playlist_items WHERE playlist_id = ? ORDER BY position", playlistID)
	if err != nil {
		return nil, fmt.Errorf("list playlist items: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan playlist item: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
