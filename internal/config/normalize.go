package config

import (
	"fmt"
	"os"
	"strings"

	"curator/internal/textutil"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeJellyfin()
	c.normalizeSync()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.universes_file", &c.Paths.UniversesFile, defaultUniversesFile},
		{"paths.library_snapshot", &c.Paths.LibrarySnapshot, ""},
		{"sync.metrics_textfile", &c.Sync.MetricsTextfile, ""},
	}
	for _, field := range fields {
		trimmed := strings.TrimSpace(*field.value)
		if trimmed == "" {
			trimmed = field.fallback
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeJellyfin() {
	if c.Jellyfin.APIKey == "" {
		if value, ok := os.LookupEnv("JELLYFIN_API_KEY"); ok {
			c.Jellyfin.APIKey = value
		}
	}
	if c.Jellyfin.UserID == "" {
		if value, ok := os.LookupEnv("JELLYFIN_USER_ID"); ok {
			c.Jellyfin.UserID = value
		}
	}
	c.Jellyfin.URL = strings.TrimRight(strings.TrimSpace(c.Jellyfin.URL), "/")
	c.Jellyfin.APIKey = strings.TrimSpace(c.Jellyfin.APIKey)
	c.Jellyfin.UserID = strings.TrimSpace(c.Jellyfin.UserID)
	if c.Jellyfin.RequestsPerSecond == 0 {
		c.Jellyfin.RequestsPerSecond = defaultJellyfinRPS
	}
	if c.Jellyfin.PageSize == 0 {
		c.Jellyfin.PageSize = defaultJellyfinPageSize
	}
	if c.Jellyfin.FailureThreshold == 0 {
		c.Jellyfin.FailureThreshold = defaultJellyfinFailures
	}
}

func (c *Config) normalizeSync() {
	c.Sync.Backend = strings.ToLower(strings.TrimSpace(c.Sync.Backend))
	if c.Sync.Backend == "" {
		c.Sync.Backend = defaultSyncBackend
	}
	if c.Sync.Backend == BackendJellyfin {
		c.Jellyfin.Enabled = true
	}

	if c.Sync.OwnerID == "" {
		if value, ok := os.LookupEnv("CURATOR_OWNER_ID"); ok {
			c.Sync.OwnerID = value
		}
	}
	c.Sync.OwnerID = strings.TrimSpace(c.Sync.OwnerID)
	if c.Sync.OwnerID == "" {
		if c.Sync.Backend == BackendJellyfin {
			c.Sync.OwnerID = c.Jellyfin.UserID
		} else {
			c.Sync.OwnerID = defaultSyncOwnerID
		}
	}

	c.Sync.PlaylistPrefix = strings.TrimLeft(c.Sync.PlaylistPrefix, " \t")
	if c.Sync.Workers == 0 {
		c.Sync.Workers = defaultSyncWorkers
	}

	providers := make([]string, 0, len(c.Sync.SupportedProviders))
	seen := make(map[string]struct{}, len(c.Sync.SupportedProviders))
	for _, provider := range c.Sync.SupportedProviders {
		normalized := textutil.NormalizeProvider(provider)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		providers = append(providers, normalized)
	}
	if len(providers) == 0 {
		providers = append(providers, defaultSupportedProviders...)
	}
	c.Sync.SupportedProviders = providers
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
