package store

import (
	"context"
	"time"

	"github.com/queuectl/queuectl/job"
)

// NewJob is the caller-supplied input to Insert: the fields a user
// controls at enqueue time.
type NewJob struct {
	ID         string
	Command    string
	MaxRetries uint32
}

// Store is the sole custodian of persistent job state.
type Store interface {
	// Insert inserts a job in state Pending with Attempts == 0. Returns
	// ErrDuplicateID if ID already exists; the store is never
	// overwritten by a second Insert of the same ID.
	Insert(ctx context.Context, nj NewJob, now time.Time) (*job.Job, error)

	// AcquireOne atomically selects one leasable job (see job.Leasable)
	// and transitions it to Processing, setting LockedBy = workerID and
	// LockedAt = now. leaseTTL is the visibility timeout granted to the
	// new lease and also the threshold used to decide whether an
	// existing Processing job's lease has gone stale. Ties are broken by
	// oldest CreatedAt, then ascending ID. Returns (nil, nil) if no job
	// is leasable.
	//
	// Implementations must perform the selection and transition as a
	// single atomic statement so that two concurrent callers never
	// acquire the same job.
	AcquireOne(ctx context.Context, workerID string, leaseTTL time.Duration, now time.Time) (*job.Job, error)

	// Complete transitions id from Processing (owned by workerID) to
	// Completed, clearing the lease and storing output. Returns
	// ErrLeaseLost if the job is not Processing under workerID.
	Complete(ctx context.Context, id, workerID string, output string, now time.Time) error

	// Fail records the outcome of an attempt already counted by
	// AcquireOne: per decision, either reschedules the job as Failed
	// with NextRetryAt = now + decision delay, or transitions it to
	// Dead. Returns ErrLeaseLost if the job is not Processing under
	// workerID.
	Fail(ctx context.Context, id, workerID string, lastError, output string, decision Decision, now time.Time) error

	// Heartbeat refreshes LockedAt for a job still held by workerID.
	// Returns ErrLeaseLost if the lease is no longer held by workerID.
	Heartbeat(ctx context.Context, id, workerID string, now time.Time) error

	// DLQRetry resets a Dead job to Pending with Attempts == 0,
	// clearing NextRetryAt and LastError. Returns ErrInvalidTransition
	// if the job is not currently Dead, or ErrNotFound if it does not
	// exist.
	DLQRetry(ctx context.Context, id string, now time.Time) error

	// List enumerates jobs, optionally filtered by state (job.Unknown
	// means no filter), ordered by CreatedAt ascending. limit <= 0
	// means no limit.
	List(ctx context.Context, state job.State, limit int) ([]*job.Job, error)

	// Counts returns the number of jobs in each state.
	Counts(ctx context.Context) (map[job.State]int64, error)
}

// Decision mirrors policy.Decision without importing package policy,
// so that package store does not depend on the retry policy's
// implementation. Store implementations call Delay to tell a retry
// decision from a dead-letter decision.
type Decision interface {
	// Delay returns the retry delay and true for a retry decision, or
	// (0, false) for a dead-letter decision.
	Delay() (time.Duration, bool)
}
