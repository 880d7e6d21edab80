// Package automap reconciles spreadsheet column headers against a catalog of
// business fields.
//
// The package is a pure function of its inputs. It performs no I/O, keeps no
// state between calls and never logs, so a single [Reconcile] call can run on
// any goroutine alongside any number of others.
//
// # Matching
//
// Each field is matched in stages, cheapest and most certain first:
//
//  1. Exact: the lower-cased header equals the lower-cased key or label.
//  2. Cleaned-exact: [Normalize] of the header equals [Normalize] of the key
//     or label, so "RTO - Road safety tax / CESS." matches "rtoRoadSafetyTax".
//  3. Fuzzy: every remaining header is scored with substring checks,
//     [Similarity] and keyword overlap, plus additive boosts for shared
//     domain tokens. The best header wins if it clears [Options.Threshold].
//
// Headers containing a denylisted token never enter the fuzzy stage.
//
// # Assignment
//
// [Reconcile] runs the exact stage for the whole catalog, then the
// cleaned-exact stage, then the fuzzy stage, so that a perfect match for a
// later field is never taken by an earlier field's guess. Fuzzy matching
// visits fields with longer labels first. A header is assigned to at most one
// field; a field without an acceptable header is left out of the result.
//
// Fuzzy scores are a ranking signal, not a probability. Boosts may push a
// score above 1.0 and the threshold is compared against the unclamped value.
package automap
