package classify

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"curator/internal/matching"
	"curator/internal/media"
	"curator/internal/textutil"
)

// DefaultProviders are the provider names accepted when none are configured.
var DefaultProviders = []string{"tmdb", "imdb", "tvdb"}

// ValidationResult reports whether an entry list is well formed.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

// ContentTypeAnalysis counts declared content types.
type ContentTypeAnalysis struct {
	Counts  map[string]int `json:"counts"`
	IsMixed bool           `json:"is_mixed"`
	Total   int            `json:"total"`
}

// UniverseResult bundles everything known about one universe after
// validation and matching. Match is nil when validation failed.
type UniverseResult struct {
	Key        string              `json:"key"`
	Name       string              `json:"name"`
	Validation ValidationResult    `json:"validation"`
	Analysis   ContentTypeAnalysis `json:"analysis"`
	Match      *matching.Result    `json:"match,omitempty"`
	Movies     []string            `json:"movies"`
	Episodes   []string            `json:"episodes"`
}

// Valid reports whether the universe passed validation.
func (r UniverseResult) Valid() bool {
	return r.Validation.IsValid
}

// MatchedIDs returns the ordered identities to place in the playlist, or nil
// when the universe was not matched.
func (r UniverseResult) MatchedIDs() []string {
	if r.Match == nil {
		return nil
	}
	return r.Match.MatchedIDs
}

// Missing returns the provider keys that could not be resolved.
func (r UniverseResult) Missing() []string {
	if r.Match == nil {
		return nil
	}
	return r.Match.Missing
}

// Options configures a Classifier.
type Options struct {
	SupportedProviders []string
}

// Classifier validates and processes universes against one matcher.
type Classifier struct {
	matcher   *matching.Matcher
	providers []string
}

// New returns a Classifier. The matcher may be nil when only Validate and
// AnalyzeTypes are needed.
func New(matcher *matching.Matcher, opts Options) *Classifier {
	providers := make([]string, 0, len(opts.SupportedProviders))
	for _, p := range opts.SupportedProviders {
		if normalized := textutil.NormalizeProvider(p); normalized != "" && !slices.Contains(providers, normalized) {
			providers = append(providers, normalized)
		}
	}
	if len(providers) == 0 {
		providers = append(providers, DefaultProviders...)
	}
	return &Classifier{matcher: matcher, providers: providers}
}

// Validate checks every entry. It never panics: a nil list, nil entries,
// missing fields and unsupported providers or types are all reported as
// errors in the result. An empty non-nil list is valid.
func (c *Classifier) Validate(entries []*media.TimelineEntry) ValidationResult {
	if entries == nil {
		return ValidationResult{IsValid: false, Errors: []string{"items list is null"}}
	}
	var errs []string
	for i, entry := range entries {
		pos := i + 1
		if entry == nil {
			errs = append(errs, fmt.Sprintf("item %d is null", pos))
			continue
		}
		if strings.TrimSpace(entry.ProviderID) == "" {
			errs = append(errs, fmt.Sprintf("item %d: providerId is required", pos))
		}
		provider := textutil.NormalizeProvider(entry.ProviderName)
		switch {
		case provider == "":
			errs = append(errs, fmt.Sprintf("item %d: providerName is required", pos))
		case !slices.Contains(c.providers, provider):
			errs = append(errs, fmt.Sprintf("item %d: provider %q is not supported (supported: %s)",
				pos, entry.ProviderName, strings.Join(c.providers, ", ")))
		}
		if strings.TrimSpace(entry.Type) == "" {
			errs = append(errs, fmt.Sprintf("item %d: type is required", pos))
		} else if _, ok := entry.ContentType(); !ok {
			errs = append(errs, fmt.Sprintf("item %d: type %q is not supported (supported: movie, episode)", pos, entry.Type))
		}
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// AnalyzeTypes counts declared types case-insensitively. Nil entries and
// entries without a type are skipped.
func AnalyzeTypes(entries []*media.TimelineEntry) ContentTypeAnalysis {
	analysis := ContentTypeAnalysis{Counts: map[string]int{}}
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		kind := textutil.NormalizeToken(entry.Type)
		if kind == "" {
			continue
		}
		analysis.Counts[kind]++
		analysis.Total++
	}
	analysis.IsMixed = len(analysis.Counts) > 1
	return analysis
}

// ProcessUniverse validates, analyzes and matches one universe. Invalid
// universes come back with the failed validation and no match. The only error
// is context cancellation.
func (c *Classifier) ProcessUniverse(ctx context.Context, universe media.Universe) (UniverseResult, error) {
	result := UniverseResult{
		Key:      universe.Key,
		Name:     universe.DisplayName(),
		Movies:   []string{},
		Episodes: []string{},
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	result.Validation = c.Validate(universe.Items)
	result.Analysis = AnalyzeTypes(universe.Items)
	if !result.Validation.IsValid {
		return result, nil
	}
	if c.matcher == nil {
		return result, fmt.Errorf("process universe %s: no matcher configured", universe.Key)
	}

	match, err := c.matcher.MatchAll(ctx, universe.Items)
	if err != nil {
		return result, err
	}
	result.Match = &match
	for _, m := range match.Matches {
		contentType, _ := m.Entry.ContentType()
		switch contentType {
		case media.ContentMovie:
			result.Movies = append(result.Movies, m.ID)
		case media.ContentEpisode:
			result.Episodes = append(result.Episodes, m.ID)
		case media.ContentUnknown:
		}
	}
	return result, nil
}

// ProcessAll processes universes in order, stopping only on cancellation.
func (c *Classifier) ProcessAll(ctx context.Context, universes []media.Universe) ([]UniverseResult, error) {
	results := make([]UniverseResult, 0, len(universes))
	for _, universe := range universes {
		res, err := c.ProcessUniverse(ctx, universe)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Providers returns the supported provider names.
func (c *Classifier) Providers() []string {
	return append([]string(nil), c.providers...)
}
