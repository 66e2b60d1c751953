// Package executor drives a plan's ready PlanItems through a bounded worker
// pool, emitting progress events and honoring cancellation.
//
// Grounded in the teacher's internal/maintenance.Worker (worker.go): a
// bounded pool of goroutines, atomic counters for thread-safe reporting, a
// context.Context carrying cancellation, and progress surfaced as work
// completes rather than only at the end. The teacher's pool is two
// specialized stages (concurrent walkers feeding one serial backup+delete
// processor) because its per-item action always touches a possibly-remote
// SMB share and needed strict serialization; this package generalizes that
// skeleton to one pool of interchangeable workers running an arbitrary
// per-item Action closure, since the six operation façades' actions (local
// rename, local delete, in-place rewrite) carry no such constraint and
// benefit from full worker-count parallelism instead.
package executor

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"filectl/internal/engineerr"
	"filectl/internal/model"
	"filectl/internal/progress"
)

func defaultWorkers() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 1
}

// Action performs the operation-specific work for one ready PlanItem
// (rename the file, recompress it, strip its metadata, ...). It returns the
// DetailRow's Extras (may be nil) and an error; a non-nil error marks the
// item failed, and the executor classifies it via engineerr.KindOf for the
// detail row's Reason.
type Action func(ctx context.Context, item model.PlanItem) (extras map[string]any, err error)

// Options configures a Run.
type Options struct {
	// Operation names the façade driving this run (e.g. "rename"), carried
	// on every progress.Event.
	Operation string

	// Workers bounds pool concurrency. <= 0 defaults to
	// runtime.GOMAXPROCS(0) (§4.7: "a parallel pool sized to the available
	// CPU parallelism, configurable override").
	Workers int

	// ProgressBuffer sizes the progress.Bus's channel. 0 is valid (see
	// progress.NewBus).
	ProgressBuffer int
}

// Run executes action over every item in items whose Status is
// model.StatusReady, in a pool of up to opts.Workers goroutines. Items are
// dispatched in plan order but may complete out of order; the returned
// progress.Bus receives one Event per completed item (ready or not — a
// skipped item advances Processed/Skipped immediately, without a worker)
// plus a final Event with Done=true once every item has been accounted for.
//
// Canceling ctx stops dispatching new ready items to workers; any item not
// yet started is recorded as skipped with reason "canceled" and the final
// event carries Canceled=true. Items already in flight are allowed to
// finish (§5: cancellation is checked at item-dispatch boundaries, not
// preempted mid-Action).
func Run(ctx context.Context, items []model.PlanItem, action Action, opts Options) (*progress.Bus, *Result) {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers()
	}

	bus := progress.NewBus(opts.ProgressBuffer)
	result := &Result{}
	correlationID := uuid.New()

	go run(ctx, items, action, opts, bus, result, correlationID)

	return bus, result
}

// Result accumulates final counts. Its fields are safe to read directly only
// after the progress.Bus's Done event has been received: the driver
// goroutine and the worker goroutines all update it under mu (via
// recordAndEmit) until then, and ToExecResult takes the same lock.
type Result struct {
	mu        sync.Mutex
	Processed int
	Succeeded int
	Failed    int
	Skipped   int
	Canceled  bool
	Details   []model.DetailRow
}

// recordAndEmit appends row and emits the resulting cumulative snapshot as
// one atomic step under r's lock. Emission must happen while still holding
// the lock, not after releasing it: two workers can call this concurrently,
// and only serializing "update the counters" and "send the event carrying
// them" as a single critical section guarantees a subscriber never observes
// Processed/Succeeded/etc. step backwards (§8, §4.9).
func (r *Result) recordAndEmit(row model.DetailRow, bus *progress.Bus, correlationID uuid.UUID, operation string, total int, canceled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Processed++
	switch row.Status {
	case model.StatusSucceeded:
		r.Succeeded++
	case model.StatusFailed:
		r.Failed++
	case model.StatusSkipped:
		r.Skipped++
	}
	r.Details = append(r.Details, row)
	bus.Emit(progress.Event{
		CorrelationID: correlationID,
		Operation:     operation,
		Processed:     r.Processed,
		Total:         total,
		Succeeded:     r.Succeeded,
		Failed:        r.Failed,
		Skipped:       r.Skipped,
		CurrentPath:   row.Source,
		Done:          false,
		Canceled:      canceled,
	})
}

// ToExecResult converts the accumulated Result into the façade-facing
// model.ExecResult shape.
func (r *Result) ToExecResult() model.ExecResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return model.ExecResult{
		Processed: r.Processed,
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
		Skipped:   r.Skipped,
		Canceled:  r.Canceled,
		Details:   append([]model.DetailRow(nil), r.Details...),
	}
}

func run(ctx context.Context, items []model.PlanItem, action Action, opts Options, bus *progress.Bus, result *Result, correlationID uuid.UUID) {
	defer bus.Close()

	total := len(items)
	sem := make(chan struct{}, opts.Workers)
	var wg sync.WaitGroup
	var canceled atomic.Bool

	for _, item := range items {
		if item.Status != model.StatusReady {
			// Already-skipped plan items (unsupported extension, no
			// matching metadata, ...) pass straight through without a
			// worker slot.
			result.recordAndEmit(model.DetailRow{
				Source:      item.Source,
				Destination: item.Destination,
				Status:      model.StatusSkipped,
				Reason:      item.Reason,
				Extras:      item.Extras,
			}, bus, correlationID, opts.Operation, total, canceled.Load())
			continue
		}

		sem <- struct{}{}
		if ctx.Err() != nil || canceled.Load() {
			<-sem
			canceled.Store(true)
			result.recordAndEmit(model.DetailRow{
				Source:      item.Source,
				Destination: item.Destination,
				Status:      model.StatusSkipped,
				Reason:      "canceled",
			}, bus, correlationID, opts.Operation, total, canceled.Load())
			continue
		}

		wg.Add(1)
		item := item
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			extras, err := action(ctx, item)
			row := model.DetailRow{
				Source:      item.Source,
				Destination: item.Destination,
				Extras:      extras,
			}
			if err != nil {
				if engineerr.IsCanceled(err) {
					canceled.Store(true)
					row.Status = model.StatusSkipped
					row.Reason = "canceled"
				} else {
					row.Status = model.StatusFailed
					row.Reason = err.Error()
				}
			} else {
				row.Status = model.StatusSucceeded
			}
			result.recordAndEmit(row, bus, correlationID, opts.Operation, total, canceled.Load())
		}()
	}

	wg.Wait()

	if ctx.Err() != nil {
		canceled.Store(true)
	}
	if canceled.Load() {
		result.mu.Lock()
		result.Canceled = true
		result.mu.Unlock()
	}

	final := result.ToExecResult()
	bus.Emit(progress.Event{
		CorrelationID: correlationID,
		Operation:     opts.Operation,
		Processed:     final.Processed,
		Total:         total,
		Succeeded:     final.Succeeded,
		Failed:        final.Failed,
		Skipped:       final.Skipped,
		Done:          true,
		Canceled:      final.Canceled,
	})
}
