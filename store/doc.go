// Package store defines the Store interface: the sole custodian of
// persistent job state and of the state-machine transitions described
// by package job. Implementations (see package sqlite) must perform
// every mutation inside a single-statement or serialized transaction so
// that job's invariants hold under arbitrary crash points.
//
// AcquireOne is the only operation with a non-trivial concurrency
// contract: it must atomically select one leasable job and transition
// it to Processing in a way that guarantees two concurrent callers never
// observe the same job, relying on the underlying storage providing
// serializable or single-writer semantics for the compound
// select-then-update.
package store
