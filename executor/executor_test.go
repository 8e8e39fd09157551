package executor_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/queuectl/queuectl/executor"
)

func TestRunSuccess(t *testing.T) {
	out := executor.Run(context.Background(), "echo hi", time.Second)
	if !out.Ok {
		t.Fatalf("expected success, got %+v", out)
	}
	if strings.TrimSpace(out.Output) != "hi" {
		t.Fatalf("unexpected output: %q", out.Output)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	out := executor.Run(context.Background(), "exit 7", time.Second)
	if out.Ok {
		t.Fatal("expected failure")
	}
	if out.Reason != executor.ReasonExit {
		t.Fatalf("expected ReasonExit, got %s", out.Reason)
	}
	if out.ExitCode != 7 {
		t.Fatalf("expected exit code 7, got %d", out.ExitCode)
	}
}

func TestRunTimeout(t *testing.T) {
	start := time.Now()
	out := executor.Run(context.Background(), "sleep 5", 200*time.Millisecond)
	elapsed := time.Since(start)
	if out.Ok {
		t.Fatal("expected failure")
	}
	if out.Reason != executor.ReasonTimeout {
		t.Fatalf("expected ReasonTimeout, got %s", out.Reason)
	}
	if elapsed > 3*time.Second {
		t.Fatalf("expected prompt kill, took %s", elapsed)
	}
}

func TestRunContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	out := executor.Run(ctx, "sleep 5", 10*time.Second)
	if out.Ok {
		t.Fatal("expected failure")
	}
	if out.Reason != executor.ReasonSignal {
		t.Fatalf("expected ReasonSignal, got %s", out.Reason)
	}
}

func TestRunEmptyCommandIsNotSpawnFailure(t *testing.T) {
	// Run always launches "sh", so an empty command still spawns: sh -c
	// with an empty string succeeds trivially. This is a smoke test that
	// Run tolerates a degenerate command without reporting ReasonSpawn.
	out := executor.Run(context.Background(), "", time.Second)
	if out.Reason == executor.ReasonSpawn {
		t.Fatalf("unexpected spawn failure: %+v", out)
	}
}

func TestRunOutputTruncation(t *testing.T) {
	out := executor.Run(context.Background(), "yes | head -c 100000", 2*time.Second)
	if !out.Ok {
		t.Fatalf("expected success, got %+v", out)
	}
	if len(out.Output) > executor.MaxOutput+64 {
		t.Fatalf("output not bounded: %d bytes", len(out.Output))
	}
	if !strings.Contains(out.Output, "truncated") {
		t.Fatal("expected truncation marker")
	}
}
