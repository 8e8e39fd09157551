package job

import "time"

// Job is the sole persistent entity of the queue engine.
//
// CreatedAt is set at insert and never changes. UpdatedAt is bumped on
// every state-changing write.
//
// Invariants maintained by every Store implementation:
//
//   - State == Processing implies LockedBy and LockedAt are both non-nil.
//   - State in {Pending, Completed, Dead} implies LockedBy and LockedAt
//     are both nil.
//   - State == Failed implies NextRetryAt is non-nil and LockedBy/LockedAt
//     are nil.
//   - Attempts <= MaxRetries + 1, under a constant max-retries config.
//
// Job values returned by a Store are snapshots taken at query time;
// mutating them has no effect on stored state.
type Job struct {
	ID      string
	Command string
	State   State

	// Attempts counts every lease acquisition that was actually run
	// through the executor, successful or not — it is incremented by
	// AcquireOne, not by Fail. A job that completes on its first try
	// therefore has Attempts == 1.
	Attempts uint32

	// MaxRetries records the max-retries config value in effect at
	// enqueue time, for display in "list"/"status" output. It is not
	// consulted by the retry policy: policy.Decide reads max-retries
	// live from config at every decision, so the retry cap actually
	// applied to a job can differ from this snapshot if the operator
	// changes the config while the job is in flight.
	MaxRetries uint32

	CreatedAt time.Time
	UpdatedAt time.Time

	NextRetryAt *time.Time
	LockedBy    *string
	LockedAt    *time.Time

	LastError *string
	Output    *string
}

// Leasable reports whether j would currently satisfy the store's
// leasable predicate, given leaseTTL and the instant now. It is a pure
// helper mirroring the predicate every Store.AcquireOne must implement
// atomically; it exists for use in tests and diagnostics, not as part
// of the acquisition path itself (that must run inside the store's
// transaction to avoid a race between check and transition).
func (j *Job) Leasable(now time.Time, leaseTTL time.Duration) bool {
	switch j.State {
	case Pending:
		return true
	case Failed:
		return j.NextRetryAt != nil && !j.NextRetryAt.After(now)
	case Processing:
		return j.LockedAt != nil && j.LockedAt.Before(now.Add(-leaseTTL))
	default:
		return false
	}
}
