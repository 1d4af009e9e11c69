// Package store provides the SQLite-backed record store for run records.
//
// Each run is kept as one canonical JSON document. Columns beside the
// document exist only to pick the latest run cheaply; every predicate search
// is a full scan in insertion order, decoded back into ir.RunRecord values.
//
// # Guarantees
//
//   - Append-only: a record is never updated or deleted once inserted.
//   - unique_id is unique; inserting a duplicate returns ErrDuplicateID.
//   - Reads are deterministic: ORDER BY seq ASC, with Seq set on every
//     returned record so callers can break date ties by insertion order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// The busy timeout serializes writers from separate processes. There is no
// further coordination between concurrent runs.
package store
