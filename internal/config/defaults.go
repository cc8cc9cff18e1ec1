package config

const (
	BackendLocal    = "local"
	BackendJellyfin = "jellyfin"
)

const (
	defaultConfigPath          = "~/.config/curator/config.toml"
	defaultStateDir            = "~/.local/share/curator"
	defaultLogDir              = "~/.local/share/curator/logs"
	defaultUniversesFile       = "~/.config/curator/universes.json"
	defaultLibrarySnapshot     = "~/.local/share/curator/library.json"
	defaultJellyfinRPS         = 5.0
	defaultJellyfinPageSize    = 500
	defaultJellyfinFailures    = 5
	defaultSyncBackend         = BackendLocal
	defaultSyncOwnerID         = "local"
	defaultSyncLibraryTimeout  = 120
	defaultSyncWriteTimeout    = 30
	defaultSyncWorkers         = 4
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	maxSyncWorkers             = 64
	maxJellyfinPageSize        = 10000
)

var defaultSupportedProviders = []string{"tmdb", "imdb", "tvdb"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:        defaultStateDir,
			LogDir:          defaultLogDir,
			UniversesFile:   defaultUniversesFile,
			LibrarySnapshot: defaultLibrarySnapshot,
		},
		Jellyfin: Jellyfin{
			RequestsPerSecond: defaultJellyfinRPS,
			PageSize:          defaultJellyfinPageSize,
			FailureThreshold:  defaultJellyfinFailures,
		},
		Sync: Sync{
			Backend:            defaultSyncBackend,
			LibraryTimeout:     defaultSyncLibraryTimeout,
			WriteTimeout:       defaultSyncWriteTimeout,
			Workers:            defaultSyncWorkers,
			SupportedProviders: append([]string(nil), defaultSupportedProviders...),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
