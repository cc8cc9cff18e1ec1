package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"curator/internal/library"
	"curator/internal/media"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteLibrarySnapshot stores items as a JSON library snapshot at path.
func WriteLibrarySnapshot(t testing.TB, path string, items ...media.LibraryItemRef) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := library.WriteSnapshot(path, items); err != nil {
		t.Fatalf("write snapshot %s: %v", path, err)
	}
}

// Movie builds a library movie with a single provider reference.
func Movie(id, provider, providerID string) media.LibraryItemRef {
	return media.LibraryItemRef{ID: id, Type: media.ContentMovie, Name: id, ProviderIDs: map[string]string{provider: providerID}}
}

// Episode builds a library episode with a single provider reference.
func Episode(id, provider, providerID string) media.LibraryItemRef {
	return media.LibraryItemRef{ID: id, Type: media.ContentEpisode, Name: id, ProviderIDs: map[string]string{provider: providerID}}
}
