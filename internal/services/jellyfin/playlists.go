package jellyfin

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"curator/internal/faults"
	"curator/internal/logging"
	"curator/internal/playlist"
)

// idsPerRequest bounds the ids carried in one query string.
const idsPerRequest = 100

var _ playlist.Backend = (*Client)(nil)

type createPlaylistRequest struct {
	Name      string   `json:"Name"`
	Ids       []string `json:"Ids"`
	UserID    string   `json:"UserId"`
	MediaType string   `json:"MediaType"`
}

type createPlaylistResponse struct {
	ID string `json:"Id"`
}

type playlistEntry struct {
	ID             string `json:"Id"`
	PlaylistItemID string `json:"PlaylistItemId"`
}

type playlistEntriesPage struct {
	Items []playlistEntry `json:"Items"`
}

// ListPlaylists returns the playlists owned by ownerID, oldest first.
func (c *Client) ListPlaylists(ctx context.Context, ownerID string) ([]playlist.Playlist, error) {
	const operation = "list playlists"
	if err := requireOwner(ownerID, operation); err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("userId", ownerID)
	query.Set("Recursive", "true")
	query.Set("IncludeItemTypes", "Playlist")
	query.Set("Fields", "ChildCount")
	query.Set("SortBy", "DateCreated,SortName")
	query.Set("SortOrder", "Ascending")

	data, err := c.do(ctx, request{operation: operation, method: http.MethodGet, path: "/Items", query: query})
	if err != nil {
		return nil, err
	}
	page, err := decode[itemsPage](operation, data)
	if err != nil {
		return nil, err
	}
	out := make([]playlist.Playlist, 0, len(page.Items))
	for _, item := range page.Items {
		out = append(out, playlist.Playlist{
			ID:        item.ID,
			Name:      item.Name,
			OwnerID:   ownerID,
			ItemCount: item.ChildCount,
		})
	}
	return out, nil
}

// CreatePlaylist creates a video playlist holding ids in order.
func (c *Client) CreatePlaylist(ctx context.Context, ownerID, name string, ids []string) (playlist.Playlist, error) {
	const operation = "create playlist"
	if err := requireOwner(ownerID, operation); err != nil {
		return playlist.Playlist{}, err
	}
	if strings.TrimSpace(name) == "" {
		return playlist.Playlist{}, faults.Wrap(faults.ErrInvalidInput, subject, operation, "playlist name is required", nil)
	}
	body := createPlaylistRequest{Name: name, Ids: append([]string{}, ids...), UserID: ownerID, MediaType: "Video"}
	data, err := c.do(ctx, request{operation: operation, method: http.MethodPost, path: "/Playlists", body: body})
	if err != nil {
		return playlist.Playlist{}, err
	}
	created, err := decode[createPlaylistResponse](operation, data)
	if err != nil {
		return playlist.Playlist{}, err
	}
	if created.ID == "" {
		return playlist.Playlist{}, faults.Wrap(faults.ErrInvalidState, subject, operation, "server returned no playlist id", nil)
	}
	c.logger.Debug("playlist created", logging.Args(
		logging.String(logging.FieldPlaylist, name),
		logging.String("playlist_id", created.ID),
		logging.Int("items", len(ids)),
	)...)
	return playlist.Playlist{ID: created.ID, Name: name, OwnerID: ownerID, ItemCount: len(ids)}, nil
}

// ReplaceItems rewrites the playlist so it holds exactly ids, in order. Jellyfin
// has no atomic replace: existing entries are removed, then ids are appended
// in chunks.
func (c *Client) ReplaceItems(ctx context.Context, ownerID, playlistID string, ids []string) error {
	const operation = "replace items"
	if err := requireOwner(ownerID, operation); err != nil {
		return err
	}
	if strings.TrimSpace(playlistID) == "" {
		return faults.Wrap(faults.ErrInvalidInput, subject, operation, "playlist id is required", nil)
	}
	path := "/Playlists/" + url.PathEscape(playlistID) + "/Items"

	query := url.Values{}
	query.Set("userId", ownerID)
	data, err := c.do(ctx, request{operation: operation, method: http.MethodGet, path: path, query: query})
	if err != nil {
		return err
	}
	existing, err := decode[playlistEntriesPage](operation, data)
	if err != nil {
		return err
	}

	entryIDs := make([]string, 0, len(existing.Items))
	for _, entry := range existing.Items {
		if entry.PlaylistItemID != "" {
			entryIDs = append(entryIDs, entry.PlaylistItemID)
		}
	}
	for chunk := range slices.Chunk(entryIDs, idsPerRequest) {
		query := url.Values{}
		query.Set("entryIds", strings.Join(chunk, ","))
		if _, err := c.do(ctx, request{operation: operation, method: http.MethodDelete, path: path, query: query}); err != nil {
			return err
		}
	}
	for chunk := range slices.Chunk(ids, idsPerRequest) {
		query := url.Values{}
		query.Set("ids", strings.Join(chunk, ","))
		query.Set("userId", ownerID)
		if _, err := c.do(ctx, request{operation: operation, method: http.MethodPost, path: path, query: query}); err != nil {
			return err
		}
	}
	return nil
}
