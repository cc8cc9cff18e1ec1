package services

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	universeKey contextKey = "universe"
	playlistKey contextKey = "playlist"
	stageKey    contextKey = "stage"
)

// WithRunID annotates context with the sync run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the sync run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithUniverse annotates context with the universe key being processed.
func WithUniverse(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, universeKey, key)
}

// UniverseFromContext returns the universe key if present.
func UniverseFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(universeKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithPlaylist annotates context with the target playlist name.
func WithPlaylist(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, playlistKey, name)
}

// PlaylistFromContext returns the playlist name if present.
func PlaylistFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(playlistKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the run stage (index, match, reconcile).
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
