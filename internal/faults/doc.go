// Package faults classifies failures raised while syncing universes.
//
// Every fault maps onto a Category, and every Category carries a fixed
// Severity and recovery Strategy. Records built with NewRecord hold the
// user-facing message (naming the affected universe or playlist plus a
// concrete recommendation) next to the original error. Summarize folds a
// batch of records into the end-of-run summary, and ShouldContinue decides
// whether the remaining work may proceed: only a critical system failure
// halts a run.
//
// Expected input problems are reported through validation results, not
// through this package. Caller cancellation is never classified; check
// IsCancellation first.
package faults
