// Package executor runs a single job's command as a child process and
// returns a normalized Outcome.
//
// Run enforces a wall-clock timeout: on expiry it sends SIGTERM, waits a
// short grace period, then sends SIGKILL. Combined stdout+stderr is
// captured up to a bounded size; excess is truncated with a marker. The
// command runs through "sh -c" to preserve the caller's quoting and pipe
// semantics — a documented injection surface, out of scope for this
// package to mitigate.
//
// Run never leaks a child process: on every exit path (success, failure,
// timeout or context cancellation) the process is waited on before Run
// returns.
package executor
