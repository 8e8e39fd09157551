package store

import "errors"

var (
	// ErrDuplicateID is returned by Insert when a job with the given ID
	// already exists. The store is left unchanged.
	ErrDuplicateID = errors.New("store: duplicate job id")

	// ErrLeaseLost is returned by Complete, Fail and Heartbeat when the
	// job is not currently Processing under the caller's worker id. The
	// lease expired and another worker now owns (or has finished) the
	// job; callers must treat this as a no-op, not an error to surface.
	ErrLeaseLost = errors.New("store: lease lost")

	// ErrNotFound is returned when an operation references a job id
	// that does not exist in the store.
	ErrNotFound = errors.New("store: job not found")

	// ErrInvalidTransition is returned by DLQRetry when the referenced
	// job is not currently Dead.
	ErrInvalidTransition = errors.New("store: invalid state transition")

	// ErrUnavailable wraps transient storage errors (busy, I/O). Callers
	// should log, back off, and retry; no partial write is ever
	// acknowledged upstream when this error is returned.
	ErrUnavailable = errors.New("store: unavailable")
)
