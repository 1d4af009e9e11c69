// Package ir provides the run record data model for provtrack.
//
// This package contains the types every other internal package exchanges:
// RunRecord, Entry and the constrained IRValue family used for opaque
// pass-through fields. ir imports nothing internal, so it stays the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - A RunRecord is immutable once stored; edits are new records
//   - Entries serialize as a bare path string or a [path, digest] pair
//   - All JSON keys use snake_case and are emitted in sorted order
//   - Unknown document fields survive a decode/encode round trip via Extra
package ir
