// Command queuectl is a persistent, local, multi-worker job queue
// operated entirely through this CLI: enqueue commands, run workers
// against an embedded SQLite store, and inspect or retry dead-lettered
// jobs, without any server process beyond the workers themselves.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/queuectl/queuectl/admin"
	"github.com/queuectl/queuectl/config"
	qcli "github.com/queuectl/queuectl/internal/cli"
	"github.com/queuectl/queuectl/internal/pidfile"
	"github.com/queuectl/queuectl/job"
	"github.com/queuectl/queuectl/sqlite"
	"github.com/queuectl/queuectl/store"
	"github.com/queuectl/queuectl/supervisor"
	"github.com/queuectl/queuectl/worker"
	"github.com/uptrace/bun"
)

const (
	dbFileName     = "queuectl.db"
	configFileName = "queuectl_config.json"
	pidFileName    = "queuectl_workers.pid"
)

// runOneFlags holds the flags accepted by "worker run-one", the
// internal subcommand the Supervisor re-invokes the binary with.
type runOneFlags struct {
	config   *string
	db       *string
	runToken *string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	dir := os.Getenv("QUEUECTL_DIR")
	if dir == "" {
		dir = "."
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := &qcli.Context{Stdout: os.Stdout, Stderr: os.Stderr}
	root := qcli.NewRoot(ctx)

	registerEnqueue(root, dir, log)
	registerWorker(root, dir, log)
	registerStatus(root, dir, log)
	registerList(root, dir, log)
	registerDLQ(root, dir, log)
	registerConfig(root, dir)

	return root.Execute(args)
}

func openAdmin(dir string) (*admin.Admin, *bun.DB, error) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, nil, err
	}
	return admin.New(sqlite.New(db), filepath.Join(dir, pidFileName)), db, nil
}

func registerEnqueue(root *qcli.Root, dir string, log *slog.Logger) {
	root.Add(&qcli.Command{
		Name:  "enqueue",
		Usage: "enqueue <json>",
		Run: func(c *qcli.Context, _ any, args []string) int {
			if len(args) != 1 {
				fmt.Fprintln(c.Stderr, "usage: queuectl enqueue '{\"id\":\"a\",\"command\":\"echo hi\"}'")
				return 1
			}
			var payload struct {
				ID      string `json:"id"`
				Command string `json:"command"`
			}
			if err := json.Unmarshal([]byte(args[0]), &payload); err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: invalid job json: %v\n", err)
				return 1
			}
			a, db, err := openAdmin(dir)
			if err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
			defer db.Close()

			// max_retries is not part of the enqueue payload: it is
			// recorded on the job as a snapshot of the config value in
			// effect right now, but the retry policy always reads
			// max-retries live from config at decision time (see
			// worker.report), so this snapshot is informational only.
			maxRetries := uint32(config.DefaultMaxRetries)
			cfg := config.Open(filepath.Join(dir, configFileName))
			if v, err := cfg.GetInt(config.KeyMaxRetries); err == nil {
				maxRetries = uint32(v)
			}
			_, err = a.Enqueue(context.Background(), admin.EnqueueRequest{
				ID:         payload.ID,
				Command:    payload.Command,
				MaxRetries: maxRetries,
			}, time.Now())
			switch {
			case err == nil:
				fmt.Fprintf(c.Stdout, "enqueued %s\n", payload.ID)
				return 0
			case errors.Is(err, admin.ErrInvalidJob):
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 1
			case errors.Is(err, store.ErrDuplicateID):
				fmt.Fprintf(c.Stderr, "queuectl: job %q already exists\n", payload.ID)
				return 1
			default:
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
		},
	})
}

func registerWorker(root *qcli.Root, dir string, log *slog.Logger) {
	workerCmd := &qcli.Command{Name: "worker", Usage: "worker start|stop|run-one"}

	workerCmd.AddSubCommand(&qcli.Command{
		Name:  "start",
		Usage: "worker start [--count N]",
		Flags: func(fs *flag.FlagSet) any {
			count := fs.Int("count", 1, "number of worker processes to spawn")
			return count
		},
		Run: func(c *qcli.Context, flags any, _ []string) int {
			count := *(flags.(*int))
			sv := supervisor.New(supervisor.Config{
				Count:      count,
				ConfigPath: filepath.Join(dir, configFileName),
				DBPath:     filepath.Join(dir, dbFileName),
				PIDFile:    filepath.Join(dir, pidFileName),
				Log:        log,
			})

			sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := sv.Start(sigCtx); err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
			<-sigCtx.Done()
			if err := sv.Stop(30 * time.Second); err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
			return 0
		},
	})

	workerCmd.AddSubCommand(&qcli.Command{
		Name:  "stop",
		Usage: "worker stop",
		Run: func(c *qcli.Context, _ any, _ []string) int {
			pids, err := pidfile.Read(filepath.Join(dir, pidFileName))
			if err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
			for _, pid := range pids {
				if err := syscall.Kill(pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
					fmt.Fprintf(c.Stderr, "queuectl: signal pid %d: %v\n", pid, err)
				}
			}
			return 0
		},
	})

	// run-one is the internal subcommand the Supervisor re-invokes the
	// binary with; it is not part of the documented CLI surface.
	workerCmd.AddSubCommand(&qcli.Command{
		Name:  "run-one",
		Usage: "internal: run-one --config PATH --db PATH",
		Flags: func(fs *flag.FlagSet) any {
			return &runOneFlags{
				config:   fs.String("config", "", ""),
				db:       fs.String("db", "", ""),
				runToken: fs.String("run-token", "", ""),
			}
		},
		Run: func(c *qcli.Context, fv any, _ []string) int {
			f := fv.(*runOneFlags)

			ctx := context.Background()
			db, err := sqlite.Open(ctx, *f.db)
			if err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
			defer db.Close()

			cfg := config.Open(*f.config)
			w := worker.New(worker.Config{
				Store:  sqlite.New(db),
				Config: cfg,
				Log:    log,
				ID:     fmt.Sprintf("%s:%d", hostnameOr("worker"), os.Getpid()),
			})

			sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := w.Start(sigCtx); err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
			<-sigCtx.Done()
			if err := w.Stop(30 * time.Second); err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
			return 0
		},
	})

	root.Add(workerCmd)
}

func registerStatus(root *qcli.Root, dir string, log *slog.Logger) {
	root.Add(&qcli.Command{
		Name:  "status",
		Usage: "status",
		Run: func(c *qcli.Context, _ any, _ []string) int {
			a, db, err := openAdmin(dir)
			if err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
			defer db.Close()

			report, err := a.Status(context.Background())
			if err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
			for _, state := range []job.State{job.Pending, job.Processing, job.Failed, job.Completed, job.Dead} {
				fmt.Fprintf(c.Stdout, "%-10s %d\n", state, report.Counts[state])
			}
			fmt.Fprintf(c.Stdout, "workers: %v\n", report.WorkerPIDs)
			return 0
		},
	})
}

func registerList(root *qcli.Root, dir string, log *slog.Logger) {
	root.Add(&qcli.Command{
		Name:  "list",
		Usage: "list [--state S]",
		Flags: func(fs *flag.FlagSet) any {
			state := fs.String("state", "", "filter by state (pending|processing|failed|completed|dead)")
			return state
		},
		Run: func(c *qcli.Context, flags any, _ []string) int {
			stateStr := *(flags.(*string))
			state := job.Unknown
			if stateStr != "" {
				s, err := job.ParseState(stateStr)
				if err != nil {
					fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
					return 1
				}
				state = s
			}
			a, db, err := openAdmin(dir)
			if err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
			defer db.Close()

			jobs, err := a.List(context.Background(), state, 0)
			if err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
			printJobs(c, jobs)
			return 0
		},
	})
}

func registerDLQ(root *qcli.Root, dir string, log *slog.Logger) {
	dlqCmd := &qcli.Command{Name: "dlq", Usage: "dlq list|retry"}

	dlqCmd.AddSubCommand(&qcli.Command{
		Name:  "list",
		Usage: "dlq list",
		Run: func(c *qcli.Context, _ any, _ []string) int {
			a, db, err := openAdmin(dir)
			if err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
			defer db.Close()

			jobs, err := a.DLQList(context.Background(), 0)
			if err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
			printJobs(c, jobs)
			return 0
		},
	})

	dlqCmd.AddSubCommand(&qcli.Command{
		Name:  "retry",
		Usage: "dlq retry <id>",
		Run: func(c *qcli.Context, _ any, args []string) int {
			if len(args) != 1 {
				fmt.Fprintln(c.Stderr, "usage: queuectl dlq retry <id>")
				return 1
			}
			a, db, err := openAdmin(dir)
			if err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
			defer db.Close()

			err = a.DLQRetry(context.Background(), args[0], time.Now())
			switch {
			case err == nil:
				return 0
			case errors.Is(err, store.ErrNotFound):
				fmt.Fprintf(c.Stderr, "queuectl: job %q not found\n", args[0])
				return 2
			case errors.Is(err, store.ErrInvalidTransition):
				fmt.Fprintf(c.Stderr, "queuectl: job %q is not dead\n", args[0])
				return 3
			default:
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
		},
	})

	root.Add(dlqCmd)
}

func registerConfig(root *qcli.Root, dir string) {
	configCmd := &qcli.Command{Name: "config", Usage: "config get|set|list"}

	configCmd.AddSubCommand(&qcli.Command{
		Name:  "get",
		Usage: "config get <key>",
		Run: func(c *qcli.Context, _ any, args []string) int {
			if len(args) != 1 {
				fmt.Fprintln(c.Stderr, "usage: queuectl config get <key>")
				return 1
			}
			cfg := config.Open(filepath.Join(dir, configFileName))
			v, err := cfg.GetInt(args[0])
			if err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 1
			}
			fmt.Fprintln(c.Stdout, v)
			return 0
		},
	})

	configCmd.AddSubCommand(&qcli.Command{
		Name:  "set",
		Usage: "config set <key> <value>",
		Run: func(c *qcli.Context, _ any, args []string) int {
			if len(args) != 2 {
				fmt.Fprintln(c.Stderr, "usage: queuectl config set <key> <value>")
				return 1
			}
			cfg := config.Open(filepath.Join(dir, configFileName))
			n, err := parseConfigInt(args[1])
			if err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 1
			}
			if err := cfg.PutInt(args[0], n); err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
			return 0
		},
	})

	configCmd.AddSubCommand(&qcli.Command{
		Name:  "list",
		Usage: "config list",
		Run: func(c *qcli.Context, _ any, _ []string) int {
			cfg := config.Open(filepath.Join(dir, configFileName))
			all, err := cfg.All()
			if err != nil {
				fmt.Fprintf(c.Stderr, "queuectl: %v\n", err)
				return 4
			}
			for _, k := range config.Keys() {
				fmt.Fprintf(c.Stdout, "%s=%s\n", k, all[k])
			}
			return 0
		},
	})

	root.Add(configCmd)
}

func printJobs(c *qcli.Context, jobs []*job.Job) {
	for _, j := range jobs {
		fmt.Fprintf(c.Stdout, "%s\t%s\tattempts=%d\n", j.ID, j.State, j.Attempts)
	}
}

func parseConfigInt(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

func hostnameOr(fallback string) string {
	h, err := os.Hostname()
	if err != nil {
		return fallback
	}
	return h
}
