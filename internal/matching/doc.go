// Package matching resolves ordered universe timeline entries against the
// content index.
//
// Matching never reorders: the matched identities are a subsequence of the
// declared entries, and every entry that cannot be resolved is reported by its
// provider key instead of aborting the run.
package matching
