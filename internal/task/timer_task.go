package task

import (
	"context"
	"time"
)

// InterruptibleSleep blocks for d, or until ctx is canceled, whichever
// comes first. It returns true if the sleep ran to completion and false
// if it was interrupted by ctx.
func InterruptibleSleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
