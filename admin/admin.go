package admin

import (
	"context"
	"errors"
	"time"

	"github.com/queuectl/queuectl/internal/pidfile"
	"github.com/queuectl/queuectl/job"
	"github.com/queuectl/queuectl/store"
)

// ErrInvalidJob is returned by Enqueue when id or command is empty.
var ErrInvalidJob = errors.New("admin: id and command must be non-empty")

// Admin wraps a store.Store with the validation and presentation the
// CLI needs and nothing else; it holds no state of its own.
type Admin struct {
	store   store.Store
	pidFile string
}

// New builds an Admin over store. pidFile is the worker-PID registry
// Status reports alongside job counts.
func New(s store.Store, pidFile string) *Admin {
	return &Admin{store: s, pidFile: pidFile}
}

// EnqueueRequest is the validated input to Enqueue.
type EnqueueRequest struct {
	ID         string
	Command    string
	MaxRetries uint32
}

// Enqueue validates req and inserts it as a new Pending job. Returns
// ErrInvalidJob if ID or Command is empty, or store.ErrDuplicateID if
// ID already exists.
func (a *Admin) Enqueue(ctx context.Context, req EnqueueRequest, now time.Time) (*job.Job, error) {
	if req.ID == "" || req.Command == "" {
		return nil, ErrInvalidJob
	}
	return a.store.Insert(ctx, store.NewJob{
		ID:         req.ID,
		Command:    req.Command,
		MaxRetries: req.MaxRetries,
	}, now)
}

// StatusReport is the result of Status: per-state job counts plus the
// PIDs of currently running workers, as recorded by the Supervisor.
type StatusReport struct {
	Counts     map[job.State]int64
	WorkerPIDs []int
}

// Status returns job counts by state and the current worker-PID
// registry contents.
func (a *Admin) Status(ctx context.Context) (StatusReport, error) {
	counts, err := a.store.Counts(ctx)
	if err != nil {
		return StatusReport{}, err
	}
	pids, err := pidfile.Read(a.pidFile)
	if err != nil {
		return StatusReport{}, err
	}
	return StatusReport{Counts: counts, WorkerPIDs: pids}, nil
}

// List enumerates jobs, optionally filtered by state.
func (a *Admin) List(ctx context.Context, state job.State, limit int) ([]*job.Job, error) {
	return a.store.List(ctx, state, limit)
}

// DLQList enumerates jobs currently in the Dead state.
func (a *Admin) DLQList(ctx context.Context, limit int) ([]*job.Job, error) {
	return a.store.List(ctx, job.Dead, limit)
}

// DLQRetry resets a Dead job to Pending with Attempts == 0. Returns
// store.ErrNotFound or store.ErrInvalidTransition as appropriate.
func (a *Admin) DLQRetry(ctx context.Context, id string, now time.Time) error {
	return a.store.DLQRetry(ctx, id, now)
}
