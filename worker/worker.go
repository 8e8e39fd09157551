package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/queuectl/queuectl/clock"
	"github.com/queuectl/queuectl/config"
	"github.com/queuectl/queuectl/executor"
	"github.com/queuectl/queuectl/internal/lifecycle"
	"github.com/queuectl/queuectl/internal/task"
	"github.com/queuectl/queuectl/job"
	"github.com/queuectl/queuectl/policy"
	"github.com/queuectl/queuectl/store"
)

// Worker runs the single-job-at-a-time processing loop described in
// package doc. Unlike a pool of concurrent handlers, a Worker executes
// at most one command at a time: a supervisor wanting N-way parallelism
// runs N Worker processes, each leasing independently from the shared
// Store.
type Worker struct {
	lifecycle.Base

	store store.Store
	cfg   *config.Store
	clock clock.Clock
	log   *slog.Logger

	id        string
	stopGrace time.Duration

	cancel context.CancelFunc
	done   task.DoneChan
}

// New builds a Worker from cfg. If cfg.ID is empty, the worker ID is
// derived from the hostname and process ID.
func New(cfg Config) *Worker {
	cfg.withDefaults()
	id := cfg.ID
	if id == "" {
		id = defaultID()
	}
	return &Worker{
		store:     cfg.Store,
		cfg:       cfg.Config,
		clock:     cfg.Clock,
		log:       cfg.Log,
		id:        id,
		stopGrace: cfg.StopGrace,
	}
}

func defaultID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "worker"
	}
	return fmt.Sprintf("%s:%d", host, os.Getpid())
}

// ID returns the worker_id this Worker records as LockedBy.
func (w *Worker) ID() string {
	return w.id
}

// Start begins the processing loop in the background. Calling Start
// while the worker is already running returns lifecycle.ErrDoubleStart.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.TryStart(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(task.DoneChan)
	go w.run(ctx)
	return nil
}

// Stop requests graceful shutdown: no new job is leased, and an
// in-flight job is given up to Config.StopGrace to finish before its
// executor context is canceled. Stop waits up to timeout and returns lifecycle.ErrStopTimeout if
// shutdown does not complete within timeout, and lifecycle.ErrDoubleStop
// if the worker is not running.
func (w *Worker) Stop(timeout time.Duration) error {
	return w.TryStop(timeout, func() task.DoneChan {
		w.cancel()
		return w.done
	})
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	for {
		if ctx.Err() != nil {
			return
		}
		tunables, err := w.cfg.Load()
		if err != nil {
			w.log.Error("worker: failed to read config", "worker_id", w.id, "err", err)
			if !task.InterruptibleSleep(ctx, time.Second) {
				return
			}
			continue
		}

		now := w.clock.Now()
		j, err := w.store.AcquireOne(ctx, w.id, tunables.LeaseTTL, now)
		if err != nil {
			w.log.Error("worker: acquire failed", "worker_id", w.id, "err", err)
			if !task.InterruptibleSleep(ctx, tunables.PollInterval) {
				return
			}
			continue
		}
		if j == nil {
			if !task.InterruptibleSleep(ctx, tunables.PollInterval) {
				return
			}
			continue
		}

		w.process(ctx, j, tunables)
	}
}

// process runs one leased job through the executor, heartbeating the
// lease at half the lease TTL, and reports the outcome to the store.
//
// If ctx is canceled (worker shutting down past its grace window)
// before the executor finishes, process abandons the job without
// calling Complete or Fail: the lease is left to expire and
// stale-lease recovery reclaims it exactly as it would a crashed
// worker, per package doc.
func (w *Worker) process(ctx context.Context, j *job.Job, tunables config.Tunables) {
	log := w.log.With("worker_id", w.id, "job_id", j.ID, "attempt", j.Attempts)
	log.Info("worker: job acquired")

	// The executor runs on a context independent of ctx: ctx is canceled
	// the instant Stop is called, but a forcibly-cancelled job must not
	// be reported as failed (see report's doc and package doc). runCtx
	// is only ever canceled explicitly below, once the stopGrace window
	// has genuinely elapsed or a lost heartbeat means the lease is no
	// longer ours to hold.
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	outcomeCh := make(chan executor.Outcome, 1)
	go func() {
		defer wg.Done()
		outcomeCh <- executor.Run(runCtx, j.Command, tunables.JobTimeout)
	}()

	half := tunables.LeaseTTL / 2
	if half <= 0 {
		half = time.Second
	}
	timer := time.NewTimer(half)
	defer timer.Stop()

	var outcome executor.Outcome
	for {
		select {
		case outcome = <-outcomeCh:
			wg.Wait()
			w.report(ctx, j, tunables, outcome, log)
			return
		case <-timer.C:
			if err := w.store.Heartbeat(ctx, j.ID, w.id, w.clock.Now()); err != nil {
				log.Warn("worker: heartbeat failed, abandoning job", "err", err)
				cancel()
				<-outcomeCh
				wg.Wait()
				return
			}
			timer.Reset(half)
		case <-ctx.Done():
			// Shutdown: give the grace window to finish naturally, then
			// cancel the executor and abandon the job without reporting.
			select {
			case outcome = <-outcomeCh:
				wg.Wait()
				w.report(context.Background(), j, tunables, outcome, log)
			case <-time.After(w.stopGrace):
				cancel()
				<-outcomeCh
				wg.Wait()
				log.Warn("worker: job abandoned at shutdown, lease left to expire")
			}
			return
		}
	}
}

func (w *Worker) report(ctx context.Context, j *job.Job, tunables config.Tunables, outcome executor.Outcome, log *slog.Logger) {
	now := w.clock.Now()
	if outcome.Ok {
		if err := w.store.Complete(ctx, j.ID, w.id, outcome.Output, now); err != nil && !errors.Is(err, store.ErrLeaseLost) {
			log.Error("worker: complete failed", "err", err)
		}
		log.Info("worker: job completed")
		return
	}

	// Re-read the retry tunables so the decision uses the config in
	// effect now, not the values loaded before the job was leased.
	maxRetries, backoffBase := tunables.MaxRetries, tunables.BackoffBase
	if live, err := w.cfg.Load(); err == nil {
		maxRetries, backoffBase = live.MaxRetries, live.BackoffBase
	} else {
		log.Warn("worker: failed to re-read config, using values loaded at lease time", "err", err)
	}
	decision := policy.Decide(j.Attempts, maxRetries, backoffBase)
	lastError := outcome.Err.Error()
	if err := w.store.Fail(ctx, j.ID, w.id, lastError, outcome.Output, decision, now); err != nil && !errors.Is(err, store.ErrLeaseLost) {
		log.Error("worker: fail failed", "err", err)
	}
	if _, retry := decision.Delay(); retry {
		log.Warn("worker: job failed, scheduled for retry", "reason", outcome.Reason, "err", outcome.Err)
	} else {
		log.Warn("worker: job failed, moved to dead letter queue", "reason", outcome.Reason, "err", outcome.Err)
	}
}
