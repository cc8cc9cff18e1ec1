package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateJellyfin(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if strings.TrimSpace(c.Paths.UniversesFile) == "" {
		return errors.New("paths.universes_file must be set")
	}
	return nil
}

func (c *Config) validateSync() error {
	switch c.Sync.Backend {
	case BackendLocal:
		if strings.TrimSpace(c.Paths.LibrarySnapshot) == "" {
			return errors.New("paths.library_snapshot must be set when sync.backend is \"local\"")
		}
	case BackendJellyfin:
	default:
		return fmt.Errorf("sync.backend: unsupported value %q (want %q or %q)", c.Sync.Backend, BackendLocal, BackendJellyfin)
	}
	if c.Sync.OwnerID == "" {
		return errors.New("sync.owner_id must be set. Set CURATOR_OWNER_ID or jellyfin.user_id")
	}
	if err := ensurePositiveMap(map[string]int{
		"sync.library_timeout": c.Sync.LibraryTimeout,
		"sync.write_timeout":   c.Sync.WriteTimeout,
		"sync.workers":         c.Sync.Workers,
	}); err != nil {
		return err
	}
	if c.Sync.Workers > maxSyncWorkers {
		return fmt.Errorf("sync.workers must be at most %d", maxSyncWorkers)
	}
	return nil
}

func (c *Config) validateJellyfin() error {
	if !c.Jellyfin.Enabled {
		return nil
	}
	if c.Jellyfin.URL == "" {
		return errors.New("jellyfin.url must be set when jellyfin.enabled is true")
	}
	if !strings.HasPrefix(c.Jellyfin.URL, "http://") && !strings.HasPrefix(c.Jellyfin.URL, "https://") {
		return fmt.Errorf("jellyfin.url must start with http:// or https://, got %q", c.Jellyfin.URL)
	}
	if c.Jellyfin.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("jellyfin.api_key is required. Set JELLYFIN_API_KEY env var or edit %s (create with 'curator config init')", defaultPath)
	}
	if c.Jellyfin.UserID == "" {
		return errors.New("jellyfin.user_id must be set when jellyfin.enabled is true. Set JELLYFIN_USER_ID env var")
	}
	if c.Jellyfin.RequestsPerSecond <= 0 {
		return errors.New("jellyfin.requests_per_second must be positive")
	}
	if err := ensurePositiveMap(map[string]int{
		"jellyfin.page_size":         c.Jellyfin.PageSize,
		"jellyfin.failure_threshold": c.Jellyfin.FailureThreshold,
	}); err != nil {
		return err
	}
	if c.Jellyfin.PageSize > maxJellyfinPageSize {
		return fmt.Errorf("jellyfin.page_size must be at most %d", maxJellyfinPageSize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
