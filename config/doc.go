// Package config persists the queue engine's tunables to a flat JSON
// object on disk (queuectl_config.json) and exposes them through typed
// accessors with defaults, in the style of a small key/value
// configuration store.
//
// Keys and defaults:
//
//	max-retries             int, default 3
//	backoff-base            int, default 2
//	job-timeout-seconds     int, default 300
//	lease-ttl-seconds       int, default 300
//	poll-interval-seconds   int, default 1
//
// The retry policy and worker loop read these values live at decision
// time (not a snapshot taken at startup), so operators may change them
// with "config set" while workers are running.
package config
