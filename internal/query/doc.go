// Package query resolves a file, digest, pattern or id prefix to the stored
// runs that touched it.
//
// MODES:
//
//	hash      subject is hashed when it names a regular file, otherwise it is
//	          taken as a literal digest; matches any hash-bearing entry
//	filepath  absolute, cleaned path equals the path of any entry
//	fuzzy     subject wrapped as ".+<subject>.+" and applied as regex
//	regex     subject applied as a regular expression anchored at the start
//	          of an entry's path
//	id        unique_id starts with subject; always shows every match
//
// A run matches when any of its inputs or outputs matches; a run appears in
// a result at most once whatever number of its entries match.
//
// ORDERING:
//
// Matches are sorted ascending by date with a stable sort. Runs with equal
// dates keep store insertion order. The most recent match is therefore
// always the last element, and Result.Runs for a "latest only" request is
// exactly that element.
//
// OUTCOMES:
//
// "No results", "database is empty" and "unknown query" are successful
// outcomes reported through Result.Outcome, never errors. Errors are
// reserved for bad input (an invalid regular expression, an empty subject)
// and store failures.
package query
