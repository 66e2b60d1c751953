// Package progress defines the typed event the executor emits as it drives
// an operation's ready PlanItems, and the small bus that fans those events
// out to a caller (CLI progress bar, GUI shell, test harness) without the
// executor knowing who is listening.
//
// Grounded in the teacher's worker.go counting pattern (atomic processed
// counter, per-folder success counter, end-of-run summary logging) — §4.9
// generalizes that ad hoc counting into one struct emitted per completed
// item instead of logged ad hoc, and adds a per-run correlation ID (§11
// Domain Stack) so a GUI shell or log aggregator can group events from one
// invocation.
package progress

import "github.com/google/uuid"

// Event is one point-in-time snapshot of an operation's run, emitted after
// each item completes. Compress additionally emits one
// "compress-estimate-progress" event per ready item, queued after planning
// and ahead of the executor's events; the target-size solve itself emits no
// events. Processed/Succeeded/Failed/Skipped
// are cumulative counts, monotonically non-decreasing within a run.
type Event struct {
	CorrelationID uuid.UUID
	Operation     string
	Processed     int
	Total         int
	Succeeded     int
	Failed        int
	Skipped       int
	CurrentPath   string
	Done          bool
	Canceled      bool
}

// Bus is a single-producer, multi-consumer-unsafe (by design: one executor
// run owns one Bus) channel wrapper. Its creator is the sole writer (the
// executor for the Bus Run returns; ops' runAsync for the Bus it forwards
// those events onto); the caller drains Events() until it closes, which happens exactly once, on
// the event with Done=true.
type Bus struct {
	ch chan Event
}

// NewBus allocates a Bus with the given buffer depth. A buffer of 0 makes
// emission synchronous with draining, which is fine for tests and CLI runs
// but would stall the executor if a slow GUI consumer falls behind — callers
// driving long batches should size the buffer to their item count or a
// generous constant.
func NewBus(buffer int) *Bus {
	return &Bus{ch: make(chan Event, buffer)}
}

// Events returns the receive-only channel callers range over.
func (b *Bus) Events() <-chan Event {
	return b.ch
}

// Emit sends e, blocking if the buffer is full. Only the writer drives a
// Bus's lifecycle (construct, Emit per item, Close after the terminal Done
// event); callers only ever read from Events().
func (b *Bus) Emit(e Event) {
	b.ch <- e
}

// Close closes the underlying channel. The writer calls this exactly
// once, after emitting the terminal Done event.
func (b *Bus) Close() {
	close(b.ch)
}
