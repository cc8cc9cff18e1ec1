package syncrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"curator/internal/config"
	"curator/internal/library"
	"curator/internal/media"
	"curator/internal/playlist"
	"curator/internal/services/jellyfin"
	"curator/internal/store"
)

// LibrarySource yields the media library the index is built from.
type LibrarySource interface {
	LibraryItems(ctx context.Context) ([]media.LibraryItemRef, error)
}

// HistoryRecorder persists finished runs.
type HistoryRecorder interface {
	RecordRun(ctx context.Context, run store.RunRecord) error
}

// Services bundles the collaborators selected by the configuration.
type Services struct {
	Source  LibrarySource
	Backend playlist.Backend
	Store   *store.Store
}

// OpenServices opens the history store and selects the library source and
// playlist backend for cfg.Sync.Backend. The local backend keeps playlists in
// the history store and reads the library from the snapshot file.
func OpenServices(cfg *config.Config, logger *slog.Logger) (*Services, error) {
	if cfg == nil {
		return nil, errors.New("open services: config is required")
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	svc := &Services{Store: st}
	switch cfg.Sync.Backend {
	case config.BackendJellyfin:
		client, err := jellyfin.New(jellyfin.SettingsFromConfig(cfg), jellyfin.WithLogger(logger))
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		svc.Source = client
		svc.Backend = client
	default:
		svc.Source = library.FileSource{Path: cfg.Paths.LibrarySnapshot}
		svc.Backend = st
	}
	return svc, nil
}

// Close releases the history store.
func (s *Services) Close() error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.Close()
}
