package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/goccy/go-json"

	"curator/internal/faults"
	"curator/internal/fileutil"
	"curator/internal/media"
)

// FileSource reads a library snapshot from a JSON file holding an array of
// items:
//
//	[{"id": "a1", "type": "movie", "name": "Iron Man", "provider_ids": {"Tmdb": "1726"}}]
type FileSource struct {
	Path string
}

// LibraryItems loads the snapshot. A missing file is reported as not found so
// the caller can tell an absent snapshot from a corrupt one.
func (s FileSource) LibraryItems(ctx context.Context) ([]media.LibraryItemRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, faults.Wrap(faults.ErrNotFound, "library", "read snapshot", "snapshot file does not exist", err)
		}
		return nil, fmt.Errorf("read library snapshot: %w", err)
	}
	items, err := DecodeSnapshot(data)
	if err != nil {
		return nil, faults.Wrap(faults.ErrInvalidInput, "library", "decode snapshot", s.Path, err)
	}
	return items, nil
}

// DecodeSnapshot parses snapshot JSON.
func DecodeSnapshot(data []byte) ([]media.LibraryItemRef, error) {
	var items []media.LibraryItemRef
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// WriteSnapshot stores items as an indented JSON snapshot, replacing any
// previous snapshot atomically.
func WriteSnapshot(path string, items []media.LibraryItemRef) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode library snapshot: %w", err)
	}
	if err := fileutil.WriteAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write library snapshot: %w", err)
	}
	return nil
}
