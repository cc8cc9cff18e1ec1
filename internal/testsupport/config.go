package testsupport

import (
	"path/filepath"
	"testing"

	"curator/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp paths per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.UniversesFile = filepath.Join(base, "universes.json")
	cfgVal.Paths.LibrarySnapshot = filepath.Join(base, "library.json")
	cfgVal.Sync.OwnerID = "test-owner"
	cfgVal.Sync.LibraryTimeout = 5
	cfgVal.Sync.WriteTimeout = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithJellyfin points the config at a Jellyfin server and selects it as the
// playlist backend.
func WithJellyfin(url, apiKey, userID string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.Backend = config.BackendJellyfin
		b.cfg.Jellyfin.Enabled = true
		b.cfg.Jellyfin.URL = url
		b.cfg.Jellyfin.APIKey = apiKey
		b.cfg.Jellyfin.UserID = userID
		b.cfg.Sync.OwnerID = userID
	}
}

// WithDryRun toggles dry-run mode.
func WithDryRun(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.DryRun = enabled
	}
}

// WithMetricsTextfile enables the metrics textfile inside the temp directory.
func WithMetricsTextfile(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.MetricsTextfile = filepath.Join(b.baseDir, name)
	}
}
