package worker_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/queuectl/queuectl/config"
	"github.com/queuectl/queuectl/job"
	"github.com/queuectl/queuectl/sqlite"
	qstore "github.com/queuectl/queuectl/store"
	"github.com/queuectl/queuectl/worker"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	db, err := sqlite.OpenMemory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.New(db)
}

func newTestConfig(t *testing.T) *config.Store {
	t.Helper()
	dir := t.TempDir()
	return config.Open(dir + "/config.json")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWorkerProcessesJobToCompletion(t *testing.T) {
	s := newTestStore(t)
	cfg := newTestConfig(t)
	_ = cfg.PutInt(config.KeyPollIntervalSeconds, 0)

	if _, err := s.Insert(context.Background(), qstore.NewJob{ID: "a", Command: "exit 0"}, time.Now()); err != nil {
		t.Fatal(err)
	}

	w := worker.New(worker.Config{Store: s, Config: cfg, Log: quietLogger(), ID: "test-worker"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		list, err := s.List(context.Background(), job.Completed, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	list, err := s.List(context.Background(), job.Completed, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 completed job, got %d", len(list))
	}
	if list[0].Attempts != 1 {
		t.Fatalf("expected attempts 1, got %d", list[0].Attempts)
	}

	if err := w.Stop(time.Second); err != nil {
		t.Fatal(err)
	}
}

func TestWorkerRetriesThenDies(t *testing.T) {
	s := newTestStore(t)
	cfg := newTestConfig(t)
	_ = cfg.PutInt(config.KeyPollIntervalSeconds, 0)
	_ = cfg.PutInt(config.KeyBackoffBase, 1)
	_ = cfg.PutInt(config.KeyMaxRetries, 1)

	if _, err := s.Insert(context.Background(), qstore.NewJob{ID: "a", Command: "exit 1", MaxRetries: 1}, time.Now()); err != nil {
		t.Fatal(err)
	}

	w := worker.New(worker.Config{Store: s, Config: cfg, Log: quietLogger(), ID: "test-worker"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		list, err := s.List(context.Background(), job.Dead, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	list, err := s.List(context.Background(), job.Dead, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected job to be dead-lettered, got %d", len(list))
	}
	if list[0].Attempts != 2 {
		t.Fatalf("expected 2 attempts (initial + 1 retry), got %d", list[0].Attempts)
	}

	_ = w.Stop(time.Second)
}

func TestWorkerStopGraceLetsInFlightJobFinish(t *testing.T) {
	s := newTestStore(t)
	cfg := newTestConfig(t)
	_ = cfg.PutInt(config.KeyPollIntervalSeconds, 0)
	_ = cfg.PutInt(config.KeyLeaseTTLSeconds, 60)

	if _, err := s.Insert(context.Background(), qstore.NewJob{ID: "a", Command: "sleep 0.3"}, time.Now()); err != nil {
		t.Fatal(err)
	}

	w := worker.New(worker.Config{
		Store:     s,
		Config:    cfg,
		Log:       quietLogger(),
		ID:        "test-worker",
		StopGrace: 2 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	// Wait for the job to actually be leased before stopping, so Stop
	// races a real in-flight execution rather than an idle poll loop.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		list, err := s.List(context.Background(), job.Processing, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Stop while the job is mid-execution. If the executor's context
	// were a child of the worker's run context, Stop would cancel it
	// immediately and the job would come back as a forced-signal
	// failure despite finishing on its own well within the grace
	// window.
	if err := w.Stop(3 * time.Second); err != nil {
		t.Fatalf("stop: %v", err)
	}

	list, err := s.List(context.Background(), job.Completed, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected the in-flight job to complete normally, got %d completed", len(list))
	}
	if list[0].Attempts != 1 {
		t.Fatalf("expected attempts 1, got %d", list[0].Attempts)
	}
}

func TestWorkerDoubleStartFails(t *testing.T) {
	s := newTestStore(t)
	cfg := newTestConfig(t)
	w := worker.New(worker.Config{Store: s, Config: cfg, Log: quietLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(ctx); err == nil {
		t.Fatal("expected error on double start")
	}
	_ = w.Stop(time.Second)
}

func TestWorkerDefaultIDIsStable(t *testing.T) {
	s := newTestStore(t)
	cfg := newTestConfig(t)
	w := worker.New(worker.Config{Store: s, Config: cfg, Log: quietLogger()})
	if w.ID() == "" {
		t.Fatal("expected a non-empty default worker ID")
	}
}
