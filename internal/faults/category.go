package faults

import "fmt"

// Category is the fault taxonomy.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryInvalidInput
	CategoryPermissionDenied
	CategoryTimeout
	CategoryInvalidState
	CategoryUnsupportedOperation
	CategoryItemNotFound
	CategorySystemFailure
)

// Categories lists every category in report order.
var Categories = []Category{
	CategoryInvalidInput,
	CategoryPermissionDenied,
	CategoryTimeout,
	CategoryInvalidState,
	CategoryUnsupportedOperation,
	CategoryItemNotFound,
	CategorySystemFailure,
	CategoryUnknown,
}

func (c Category) String() string {
	switch c {
	case CategoryInvalidInput:
		return "invalid_input"
	case CategoryPermissionDenied:
		return "permission_denied"
	case CategoryTimeout:
		return "timeout"
	case CategoryInvalidState:
		return "invalid_state"
	case CategoryUnsupportedOperation:
		return "unsupported_operation"
	case CategoryItemNotFound:
		return "item_not_found"
	case CategorySystemFailure:
		return "system_failure"
	default:
		return "unknown"
	}
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText decodes a category name. Unrecognized names decode to
// CategoryUnknown.
func (c *Category) UnmarshalText(text []byte) error {
	*c = CategoryUnknown
	for _, candidate := range Categories {
		if candidate.String() == string(text) {
			*c = candidate
			break
		}
	}
	return nil
}

// Severity orders faults from Low to Critical.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Severity) UnmarshalText(text []byte) error {
	for candidate := SeverityLow; candidate <= SeverityCritical; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", text)
}

// Strategy is the recovery approach recommended for a category.
type Strategy int

const (
	StrategyNoRecovery Strategy = iota
	StrategyRetryWithDelay
	StrategySkipInvalidItems
)

func (s Strategy) String() string {
	switch s {
	case StrategyRetryWithDelay:
		return "retry_with_delay"
	case StrategySkipInvalidItems:
		return "skip_invalid_items"
	default:
		return "no_recovery"
	}
}

func (s Strategy) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Strategy) UnmarshalText(text []byte) error {
	for _, candidate := range []Strategy{StrategyNoRecovery, StrategyRetryWithDelay, StrategySkipInvalidItems} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown strategy %q", text)
}

type policy struct {
	severity       Severity
	strategy       Strategy
	description    string
	recommendation string
}

var policies = map[Category]policy{
	CategoryInvalidInput: {
		severity:       SeverityMedium,
		strategy:       StrategySkipInvalidItems,
		description:    "invalid input",
		recommendation: "Review the universe definition: every item needs providerId, providerName and type",
	},
	CategoryPermissionDenied: {
		severity:       SeverityHigh,
		strategy:       StrategyNoRecovery,
		description:    "permission denied",
		recommendation: "Check the API key and that the playlist owner may create and edit playlists",
	},
	CategoryTimeout: {
		severity:       SeverityMedium,
		strategy:       StrategyRetryWithDelay,
		description:    "operation timed out",
		recommendation: "Retry the sync later or raise sync.library_timeout / sync.write_timeout",
	},
	CategoryInvalidState: {
		severity:       SeverityHigh,
		strategy:       StrategyRetryWithDelay,
		description:    "playlist is in an unexpected state",
		recommendation: "Re-run the sync; the playlist changed while it was being updated",
	},
	CategoryUnsupportedOperation: {
		severity:       SeverityHigh,
		strategy:       StrategyNoRecovery,
		description:    "operation not supported by the playlist backend",
		recommendation: "Switch sync.backend or upgrade the media server",
	},
	CategoryItemNotFound: {
		severity:       SeverityLow,
		strategy:       StrategySkipInvalidItems,
		description:    "item not found",
		recommendation: "Rescan the media library so missing items are indexed",
	},
	CategorySystemFailure: {
		severity:       SeverityCritical,
		strategy:       StrategyNoRecovery,
		description:    "playlist backend unavailable",
		recommendation: "Check that the media server is reachable before retrying",
	},
	CategoryUnknown: {
		severity:       SeverityHigh,
		strategy:       StrategyRetryWithDelay,
		description:    "unexpected failure",
		recommendation: "Check the logs for details and retry the sync",
	},
}

func policyFor(c Category) policy {
	if p, ok := policies[c]; ok {
		return p
	}
	return policies[CategoryUnknown]
}

// SeverityOf returns the fixed severity of a category.
func SeverityOf(c Category) Severity { return policyFor(c).severity }

// StrategyOf returns the fixed recovery strategy of a category.
func StrategyOf(c Category) Strategy { return policyFor(c).strategy }

// Recommendation returns the actionable advice attached to a category.
func Recommendation(c Category) string { return policyFor(c).recommendation }

// ShouldContinue reports whether remaining work may proceed after a fault.
func ShouldContinue(c Category, s Severity) bool {
	return !(c == CategorySystemFailure && s == SeverityCritical)
}
