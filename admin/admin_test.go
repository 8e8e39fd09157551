package admin_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/queuectl/queuectl/admin"
	"github.com/queuectl/queuectl/internal/pidfile"
	"github.com/queuectl/queuectl/job"
	"github.com/queuectl/queuectl/sqlite"
	"github.com/queuectl/queuectl/store"
)

func newTestAdmin(t *testing.T) (*admin.Admin, string) {
	t.Helper()
	db, err := sqlite.OpenMemory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	pidFile := filepath.Join(t.TempDir(), "queuectl_workers.pid")
	return admin.New(sqlite.New(db), pidFile), pidFile
}

func TestEnqueueRejectsEmptyFields(t *testing.T) {
	a, _ := newTestAdmin(t)
	ctx := context.Background()
	now := time.Now()

	if _, err := a.Enqueue(ctx, admin.EnqueueRequest{ID: "", Command: "echo hi"}, now); err != admin.ErrInvalidJob {
		t.Fatalf("expected ErrInvalidJob for empty id, got %v", err)
	}
	if _, err := a.Enqueue(ctx, admin.EnqueueRequest{ID: "a", Command: ""}, now); err != admin.ErrInvalidJob {
		t.Fatalf("expected ErrInvalidJob for empty command, got %v", err)
	}
}

func TestEnqueueRejectsDuplicate(t *testing.T) {
	a, _ := newTestAdmin(t)
	ctx := context.Background()
	now := time.Now()

	if _, err := a.Enqueue(ctx, admin.EnqueueRequest{ID: "a", Command: "echo hi"}, now); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Enqueue(ctx, admin.EnqueueRequest{ID: "a", Command: "echo hi"}, now); err != store.ErrDuplicateID {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestStatusReportsCountsAndPIDs(t *testing.T) {
	a, pidFile := newTestAdmin(t)
	ctx := context.Background()
	now := time.Now()

	if _, err := a.Enqueue(ctx, admin.EnqueueRequest{ID: "a", Command: "echo hi"}, now); err != nil {
		t.Fatal(err)
	}
	if err := pidfile.Write(pidFile, []int{123, 456}); err != nil {
		t.Fatal(err)
	}

	report, err := a.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Counts[job.Pending] != 1 {
		t.Fatalf("expected 1 pending job, got %d", report.Counts[job.Pending])
	}
	if len(report.WorkerPIDs) != 2 {
		t.Fatalf("expected 2 worker pids, got %v", report.WorkerPIDs)
	}
}

func TestDLQRetryRejectsUnknownID(t *testing.T) {
	a, _ := newTestAdmin(t)
	ctx := context.Background()
	if err := a.DLQRetry(ctx, "missing", time.Now()); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDLQListEmptyWithoutDeadJobs(t *testing.T) {
	a, _ := newTestAdmin(t)
	ctx := context.Background()
	now := time.Now()

	if _, err := a.Enqueue(ctx, admin.EnqueueRequest{ID: "a", Command: "exit 1"}, now); err != nil {
		t.Fatal(err)
	}

	list, err := a.DLQList(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no dead jobs yet, got %d", len(list))
	}
}
