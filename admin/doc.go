// Package admin provides thin, validating wrappers over store.Store
// for the operations the CLI exposes directly to an operator: enqueue,
// status, list, and dead-letter-queue management. None of these
// operations touch a worker's lease; they only read or seed job rows.
package admin
