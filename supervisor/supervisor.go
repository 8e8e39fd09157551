package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/queuectl/queuectl/internal/lifecycle"
	"github.com/queuectl/queuectl/internal/pidfile"
	"github.com/queuectl/queuectl/internal/task"
)

// Config configures a Supervisor.
type Config struct {
	// Count is the number of Worker processes to spawn. Must be >= 1.
	Count int

	// Executable is the binary to re-invoke for each child. Defaults to
	// os.Executable().
	Executable string

	// ConfigPath and DBPath are forwarded to each child as
	// "worker run-one --config PATH --db PATH".
	ConfigPath string
	DBPath     string

	// PIDFile is where the registry of spawned PIDs is written.
	PIDFile string

	Log *slog.Logger
}

// Supervisor spawns Config.Count Worker child processes and waits for
// them to exit.
type Supervisor struct {
	lifecycle.Base

	cfg      Config
	log      *slog.Logger
	runToken string

	mu       sync.Mutex
	children []*exec.Cmd

	cancel context.CancelFunc
	done   task.DoneChan
}

// New builds a Supervisor. It does not spawn any process until Start
// is called.
func New(cfg Config) *Supervisor {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{
		cfg:      cfg,
		log:      log,
		runToken: uuid.NewString(),
	}
}

// Start spawns Config.Count child Worker processes, records their PIDs
// to Config.PIDFile, and begins waiting for them in the background.
func (sv *Supervisor) Start(ctx context.Context) error {
	// Every fallible step runs before TryStart: a Supervisor that fails
	// to spawn must be retryable with a plain second Start call, not
	// left wedged in the started state with no child to Stop.
	exe := sv.cfg.Executable
	if exe == "" {
		var err error
		exe, err = os.Executable()
		if err != nil {
			return fmt.Errorf("supervisor: resolve executable: %w", err)
		}
	}

	children := make([]*exec.Cmd, 0, sv.cfg.Count)
	pids := make([]int, 0, sv.cfg.Count)
	for i := 0; i < sv.cfg.Count; i++ {
		cmd := exec.Command(exe, "worker", "run-one",
			"--config", sv.cfg.ConfigPath,
			"--db", sv.cfg.DBPath,
			"--run-token", fmt.Sprintf("%s-%d", sv.runToken, i),
		)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		if err := cmd.Start(); err != nil {
			sv.killAll(children)
			return fmt.Errorf("supervisor: spawn worker %d: %w", i, err)
		}
		children = append(children, cmd)
		pids = append(pids, cmd.Process.Pid)
	}

	if err := pidfile.Write(sv.cfg.PIDFile, pids); err != nil {
		sv.killAll(children)
		return fmt.Errorf("supervisor: write pidfile: %w", err)
	}

	if err := sv.TryStart(); err != nil {
		sv.killAll(children)
		_ = pidfile.Remove(sv.cfg.PIDFile)
		return err
	}

	sv.mu.Lock()
	sv.children = children
	sv.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	sv.cancel = cancel
	sv.done = make(task.DoneChan)
	go sv.wait(ctx, children)

	sv.log.Info("supervisor: started", "count", len(children), "pids", pids)
	return nil
}

func (sv *Supervisor) wait(ctx context.Context, children []*exec.Cmd) {
	defer close(sv.done)
	defer func() {
		if err := pidfile.Remove(sv.cfg.PIDFile); err != nil {
			sv.log.Warn("supervisor: failed to remove pidfile", "err", err)
		}
	}()

	exited := task.CombineAll(waitAll(children)...)

	select {
	case <-exited:
		sv.log.Info("supervisor: all workers exited")
	case <-ctx.Done():
		sv.log.Info("supervisor: shutting down, signaling workers")
		sv.killAll(children)
		<-exited
	}
}

func waitAll(children []*exec.Cmd) []task.DoneChan {
	chans := make([]task.DoneChan, len(children))
	for i, cmd := range children {
		dc := make(task.DoneChan)
		chans[i] = dc
		go func(cmd *exec.Cmd, dc task.DoneChan) {
			defer close(dc)
			_ = cmd.Wait()
		}(cmd, dc)
	}
	return chans
}

func (sv *Supervisor) killAll(children []*exec.Cmd) {
	for _, cmd := range children {
		if cmd.Process == nil {
			continue
		}
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
}

// Stop requests graceful shutdown of every child and waits up to
// timeout for them all to exit.
func (sv *Supervisor) Stop(timeout time.Duration) error {
	return sv.TryStop(timeout, func() task.DoneChan {
		sv.cancel()
		return sv.done
	})
}
