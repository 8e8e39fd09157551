// Package policy implements the retry/backoff/DLQ decision function: a
// pure mapping from (attempts, backoff_base, max_retries) to either a
// scheduled retry delay or a terminal dead-letter verdict.
//
// Decide never consults wall-clock time or storage; callers combine its
// result with a clock.Clock to compute an absolute NextRetryAt.
package policy
