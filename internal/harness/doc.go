// Package harness runs provenance scenarios end to end.
//
// A scenario describes a small project on disk, a sequence of programs that
// read and write its files through the instrumented adapters, and the
// queries a user would later run against the store. The harness executes
// every run as a real tracking session inside a throwaway working directory,
// then evaluates queries and assertions against what was persisted.
//
// Runs use a stepping clock and sequential ids (run-0001, run-0002, ...) so
// the same scenario always produces the same snapshot. Paths in results and
// snapshots are rewritten relative to the working directory as "$WORK/...".
//
// Tracking sessions are process-wide, so scenarios must not run in parallel.
package harness
