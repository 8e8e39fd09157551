// Package job defines the Job entity and its lifecycle state machine,
// the sole persistent entity of the queue engine.
//
// A Job is created by enqueue in state Pending. It transitions to
// Processing exactly when a worker acquires a lease. Terminal states are
// Completed and Dead. Failed is transient: a Failed job always
// re-enters Processing after its backoff elapses, and a failing
// Processing job moves to Dead once its retry budget is exhausted.
//
// Job values returned by the store are snapshots; mutating them does not
// change the underlying stored state. Transitions must be performed
// through the store.Store interface.
package job
