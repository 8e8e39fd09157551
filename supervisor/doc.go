// Package supervisor spawns and tracks a fleet of Worker OS processes.
//
// Each child is the same binary re-invoked with the internal
// "worker run-one" subcommand, so every child is an independent
// single-job-at-a-time Worker leasing from the shared Store; the
// Supervisor itself never touches job state. It exists only to fork
// children, record their PIDs for the CLI's "worker stop" command, and
// wait for them to exit.
//
// Supervisor has the same strict start/stop lifecycle as Worker, built
// on the same internal/lifecycle.Base.
package supervisor
