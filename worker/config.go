package worker

import (
	"log/slog"
	"time"

	"github.com/queuectl/queuectl/clock"
	"github.com/queuectl/queuectl/config"
	"github.com/queuectl/queuectl/store"
)

// Config configures a Worker.
type Config struct {
	Store  store.Store
	Config *config.Store
	Clock  clock.Clock
	Log    *slog.Logger

	// ID overrides worker_id ("{hostname}:{pid}" if empty).
	ID string

	// StopGrace bounds how long Stop waits for an in-flight job to
	// finish before the executor is canceled and the lease is left to
	// expire. Default 30s.
	StopGrace time.Duration
}

func (c *Config) withDefaults() {
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	if c.Log == nil {
		c.Log = slog.Default()
	}
	if c.StopGrace <= 0 {
		c.StopGrace = 30 * time.Second
	}
}
