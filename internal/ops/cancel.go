// Package ops implements the six operation façades (rename, delete,
// compress, flatten, exifOffset, metadataStrip), each a thin coordinator
// wiring internal/plan's planner to internal/executor's worker pool.
//
// §5's concurrency model calls for "one process-wide atomic boolean"
// cancellation flag, cleared at execute entry and set by an external
// signal — this is the one piece of state this package owns that outlives
// a single request (alongside the settings store, per §3's lifecycle note).
// Every other façade field is per-request and discarded when execute
// returns.
package ops

import (
	"context"
	"sync/atomic"
	"time"
)

var cancelFlag atomic.Bool

// Cancel sets the process-wide cancellation flag. Idempotent (§5).
func Cancel() {
	cancelFlag.Store(true)
}

// Canceled reports the process-wide flag's current value.
func Canceled() bool {
	return cancelFlag.Load()
}

const pollInterval = 25 * time.Millisecond

// runContext derives a context from parent that is additionally canceled
// when the process-wide flag is set, polling at pollInterval since the flag
// itself carries no wakeup channel. It is cleared at the start of every
// execute call (§4.8: "Execute clears the cancellation flag").
func runContext(parent context.Context) (context.Context, context.CancelFunc) {
	cancelFlag.Store(false)

	ctx, cancel := context.WithCancel(parent)
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if cancelFlag.Load() {
					cancel()
					return
				}
			}
		}
	}()

	return ctx, func() {
		close(stop)
		cancel()
	}
}
