package faults

import (
	"fmt"
	"sort"
	"strings"
)

// Record is one classified fault.
type Record struct {
	Subject        string   `json:"subject"`
	Category       Category `json:"category"`
	Severity       Severity `json:"severity"`
	Strategy       Strategy `json:"strategy"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation"`
	Detail         string   `json:"detail,omitempty"`
	Err            error    `json:"-"`
}

// NewRecord classifies err and builds the user-facing message for subject,
// which names the affected universe or playlist.
func NewRecord(subject string, err error) Record {
	return NewRecordWithCategory(subject, Classify(err), err)
}

// NewRecordWithCategory builds a record for a fault whose category is already
// known, such as a failed validation.
func NewRecordWithCategory(subject string, category Category, err error) Record {
	p := policyFor(category)
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "sync run"
	}
	record := Record{
		Subject:        subject,
		Category:       category,
		Severity:       p.severity,
		Strategy:       p.strategy,
		Recommendation: p.recommendation,
		Err:            err,
	}
	record.Message = fmt.Sprintf("%s: %s. %s", subject, p.description, p.recommendation)
	if err != nil {
		record.Detail = err.Error()
	}
	return record
}

// Continue reports whether the run may proceed after this fault.
func (r Record) Continue() bool {
	return ShouldContinue(r.Category, r.Severity)
}

func (r Record) Error() string {
	if r.Detail == "" {
		return r.Message
	}
	return r.Message + " (" + r.Detail + ")"
}

func (r Record) Unwrap() error { return r.Err }

// BatchSummary aggregates the faults of one run.
type BatchSummary struct {
	Total             int              `json:"total"`
	ByCategory        map[Category]int `json:"by_category"`
	CriticalErrors    int              `json:"critical_errors"`
	RecoverableErrors int              `json:"recoverable_errors"`
	OverallSeverity   Severity         `json:"overall_severity"`
	Recommendations   []string         `json:"recommendations"`
}

// Summarize folds records into a batch summary. Recommendations hold one
// entry per category present, in category report order.
func Summarize(records []Record) BatchSummary {
	summary := BatchSummary{
		Total:      len(records),
		ByCategory: make(map[Category]int),
	}
	for _, record := range records {
		summary.ByCategory[record.Category]++
		if record.Severity == SeverityCritical {
			summary.CriticalErrors++
		}
		if record.Severity > summary.OverallSeverity {
			summary.OverallSeverity = record.Severity
		}
	}
	summary.RecoverableErrors = summary.Total - summary.CriticalErrors

	present := make([]Category, 0, len(summary.ByCategory))
	for category := range summary.ByCategory {
		present = append(present, category)
	}
	sort.Slice(present, func(i, j int) bool {
		return reportIndex(present[i]) < reportIndex(present[j])
	})
	for _, category := range present {
		summary.Recommendations = append(summary.Recommendations, Recommendation(category))
	}
	return summary
}

// HasErrors reports whether any fault was recorded.
func (s BatchSummary) HasErrors() bool { return s.Total > 0 }

func reportIndex(c Category) int {
	for i, candidate := range Categories {
		if candidate == c {
			return i
		}
	}
	return len(Categories)
}
