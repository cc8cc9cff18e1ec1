package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"curator/internal/config"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearEnv(t, "JELLYFIN_API_KEY", "JELLYFIN_USER_ID", "CURATOR_OWNER_ID")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "curator")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.UniversesFile != filepath.Join(tempHome, ".config", "curator", "universes.json") {
		t.Fatalf("unexpected universes file: %q", cfg.Paths.UniversesFile)
	}
	if cfg.Jellyfin.Enabled {
		t.Fatal("expected Jellyfin disabled by default")
	}
	if cfg.Sync.Backend != config.BackendLocal {
		t.Fatalf("expected local backend, got %q", cfg.Sync.Backend)
	}
	if cfg.Sync.OwnerID != "local" {
		t.Fatalf("expected default owner, got %q", cfg.Sync.OwnerID)
	}
	if got := strings.Join(cfg.Sync.SupportedProviders, ","); got != "tmdb,imdb,tvdb" {
		t.Fatalf("unexpected supported providers: %q", got)
	}
	if cfg.LibraryTimeout() != 120*time.Second {
		t.Fatalf("unexpected library timeout: %s", cfg.LibraryTimeout())
	}
	if cfg.WriteTimeout() != 30*time.Second {
		t.Fatalf("unexpected write timeout: %s", cfg.WriteTimeout())
	}
	if cfg.StorePath() != filepath.Join(wantState, "curator.db") {
		t.Fatalf("unexpected store path: %q", cfg.StorePath())
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearEnv(t, "JELLYFIN_API_KEY", "JELLYFIN_USER_ID", "CURATOR_OWNER_ID")
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "curator.toml")
	content := `
[paths]
state_dir = "` + filepath.Join(dir, "state") + `"
universes_file = "` + filepath.Join(dir, "universes.yaml") + `"

[jellyfin]
url = "http://jellyfin:8096/"
api_key = "file-key"
user_id = "user-1"
page_size = 200

[sync]
backend = "Jellyfin"
playlist_prefix = "Timeline: "
workers = 2
supported_providers = ["TMDb", " imdb ", "tmdb"]

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %q, got %q (exists=%v)", path, resolved, exists)
	}
	if !cfg.UsesJellyfin() || !cfg.Jellyfin.Enabled {
		t.Fatal("expected jellyfin backend to enable jellyfin")
	}
	if cfg.Jellyfin.URL != "http://jellyfin:8096" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Jellyfin.URL)
	}
	if cfg.Sync.OwnerID != "user-1" {
		t.Fatalf("expected owner to fall back to jellyfin user, got %q", cfg.Sync.OwnerID)
	}
	if cfg.Sync.PlaylistPrefix != "Timeline: " {
		t.Fatalf("unexpected prefix %q", cfg.Sync.PlaylistPrefix)
	}
	if got := strings.Join(cfg.Sync.SupportedProviders, ","); got != "tmdb,imdb" {
		t.Fatalf("expected normalized providers, got %q", got)
	}
	if cfg.Jellyfin.PageSize != 200 {
		t.Fatalf("unexpected page size %d", cfg.Jellyfin.PageSize)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestEnvVarFallbacksForJellyfinCredentials(t *testing.T) {
	clearEnv(t, "CURATOR_OWNER_ID")
	t.Setenv("HOME", t.TempDir())
	t.Setenv("JELLYFIN_API_KEY", "env-key")
	t.Setenv("JELLYFIN_USER_ID", "env-user")
	dir := t.TempDir()
	path := filepath.Join(dir, "curator.toml")
	content := `
[jellyfin]
url = "https://media.example"
api_key = "file-key"

[sync]
backend = "jellyfin"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Jellyfin.APIKey != "file-key" {
		t.Fatalf("expected file key to win over env, got %q", cfg.Jellyfin.APIKey)
	}
	if cfg.Jellyfin.UserID != "env-user" {
		t.Fatalf("expected user id from env, got %q", cfg.Jellyfin.UserID)
	}
}

func TestLoadReadsDotEnvBesideConfig(t *testing.T) {
	clearEnv(t, "CURATOR_OWNER_ID", "JELLYFIN_API_KEY", "JELLYFIN_USER_ID")
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CURATOR_OWNER_ID=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	path := filepath.Join(dir, "curator.toml")
	if err := os.WriteFile(path, []byte("[sync]\nworkers = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Sync.OwnerID != "from-dotenv" {
		t.Fatalf("expected owner from .env, got %q", cfg.Sync.OwnerID)
	}
}

func TestJellyfinBackendRequiresCredentials(t *testing.T) {
	clearEnv(t, "JELLYFIN_API_KEY", "JELLYFIN_USER_ID", "CURATOR_OWNER_ID")
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "curator.toml")
	content := `
[jellyfin]
url = "http://jellyfin:8096"
user_id = "u"

[sync]
backend = "jellyfin"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "jellyfin.api_key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "JELLYFIN_API_KEY") {
		t.Fatalf("sample config missing env hint: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.StateDir, "curator") {
		t.Fatalf("expected state dir to contain curator, got %q", cfg.Paths.StateDir)
	}
	if cfg.Sync.Workers != 4 {
		t.Fatalf("unexpected sample workers %d", cfg.Sync.Workers)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown backend", func(c *config.Config) { c.Sync.Backend = "plex" }},
		{"zero write timeout", func(c *config.Config) { c.Sync.WriteTimeout = 0 }},
		{"negative library timeout", func(c *config.Config) { c.Sync.LibraryTimeout = -1 }},
		{"too many workers", func(c *config.Config) { c.Sync.Workers = 1000 }},
		{"missing owner", func(c *config.Config) { c.Sync.OwnerID = "" }},
		{"missing snapshot", func(c *config.Config) { c.Paths.LibrarySnapshot = "" }},
		{"bad level", func(c *config.Config) { c.Logging.Level = "loud" }},
		{"jellyfin without url", func(c *config.Config) {
			c.Jellyfin.Enabled = true
			c.Jellyfin.APIKey = "k"
			c.Jellyfin.UserID = "u"
		}},
		{"jellyfin bad scheme", func(c *config.Config) {
			c.Jellyfin.Enabled = true
			c.Jellyfin.URL = "jellyfin:8096"
			c.Jellyfin.APIKey = "k"
			c.Jellyfin.UserID = "u"
		}},
		{"jellyfin zero rate", func(c *config.Config) {
			c.Jellyfin.Enabled = true
			c.Jellyfin.URL = "http://jellyfin"
			c.Jellyfin.APIKey = "k"
			c.Jellyfin.UserID = "u"
			c.Jellyfin.RequestsPerSecond = 0
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Sync.OwnerID = "local"
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	cfg.Sync.OwnerID = "local"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults with an owner to validate, got %v", err)
	}
}

func TestDefaultLeavesOwnerUnset(t *testing.T) {
	cfg := config.Default()
	if cfg.Sync.OwnerID != "" {
		t.Fatalf("expected owner resolved during load, got %q", cfg.Sync.OwnerID)
	}
}

func TestLoadJellyfinOwnerFallsBackToUserID(t *testing.T) {
	clearEnv(t, "CURATOR_OWNER_ID", "JELLYFIN_USER_ID")
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "curator.toml")
	content := `
[jellyfin]
url = "http://jellyfin:8096"
api_key = "key"
user_id = "jf-user"

[sync]
backend = "jellyfin"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Sync.OwnerID != "jf-user" {
		t.Fatalf("expected jellyfin owner %q, got %q", "jf-user", cfg.Sync.OwnerID)
	}
}

func TestLoadOwnerFromEnvBeatsJellyfinUser(t *testing.T) {
	clearEnv(t, "JELLYFIN_USER_ID")
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CURATOR_OWNER_ID", "env-owner")
	path := filepath.Join(t.TempDir(), "curator.toml")
	content := `
[jellyfin]
url = "http://jellyfin:8096"
api_key = "key"
user_id = "jf-user"

[sync]
backend = "jellyfin"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Sync.OwnerID != "env-owner" {
		t.Fatalf("expected env owner, got %q", cfg.Sync.OwnerID)
	}
}
