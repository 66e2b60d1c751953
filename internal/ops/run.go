package ops

import (
	"context"

	"filectl/internal/executor"
	"filectl/internal/model"
	"filectl/internal/progress"
)

// runAsync drives one executor run in a background goroutine, exposing a
// single progress.Bus the caller drains start to finish. preEvents (used
// only by compress, one estimate event per ready item — §4.9) are emitted
// before the executor's own events. The returned channel delivers exactly
// one model.ExecResult, after the bus has been closed.
func runAsync(ctx context.Context, items []model.PlanItem, action executor.Action, operation string, workers int, preEvents []progress.Event) (*progress.Bus, <-chan model.ExecResult) {
	bus := progress.NewBus(len(items) + len(preEvents) + 1)
	resultCh := make(chan model.ExecResult, 1)

	go func() {
		defer close(resultCh)

		for _, ev := range preEvents {
			bus.Emit(ev)
		}

		runCtx, done := runContext(ctx)
		defer done()

		execBus, result := executor.Run(runCtx, items, action, executor.Options{
			Operation: operation,
			Workers:   workers,
		})
		for ev := range execBus.Events() {
			bus.Emit(ev)
		}
		bus.Close()
		resultCh <- result.ToExecResult()
	}()

	return bus, resultCh
}
