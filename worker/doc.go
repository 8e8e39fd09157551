// Package worker implements the single-process job-processing loop:
// lease a job from the store, run it through the executor, report the
// outcome, repeat.
//
// Worker has a strict lifecycle built on internal/lifecycle.Base: Start
// fails while the worker is already running; Stop requests graceful shutdown and waits up to a
// grace window for the in-flight job (if any) to finish before the
// executor is canceled. A forcibly canceled job's lease is left to
// expire naturally — the Worker never marks it failed — so that a
// killed worker looks identical to a crashed one and stale-lease
// recovery handles both uniformly.
package worker
