// Package sqlite provides a bun-based SQLite implementation of
// store.Store.
//
// # Overview
//
// The backend provides:
//
//   - durable persistence of jobs in a single "jobs" table
//   - atomic state transitions
//   - lease (visibility timeout) semantics via the locked_at column
//   - retry-safe AcquireOne using UPDATE ... WHERE id IN (subquery)
//
// # Concurrency Model
//
// AcquireOne is implemented as a single atomic UPDATE statement with a
// subquery, so that the leasable predicate is re-evaluated inside the
// same statement as the transition, avoiding a race between selection
// and acquisition across concurrent callers.
//
// SQLite is used with WAL journaling and a busy timeout; the caller
// should keep MaxOpenConns at 1, since SQLite serializes writers at the
// connection level and a pool of connections only adds contention for a
// single-writer workload such as this one.
//
// # Schema
//
// Open creates the jobs table (if not exists) and three indexes:
// (state, next_retry_at), (state, locked_at) and (state, updated_at).
// Schema creation is idempotent and runs inside a transaction; it does
// not perform destructive migrations.
//
// # Limitations
//
// Lease semantics rely on status and timestamp columns, not lease
// tokens or optimistic-locking versions. Concurrent acquisition
// correctness rests entirely on SQLite's single-writer transaction
// semantics.
package sqlite
