package executor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"filectl/internal/engineerr"
	"filectl/internal/model"
)

func TestRun_AllSucceed(t *testing.T) {
	items := []model.PlanItem{
		{Source: "a.jpg", Destination: "a2.jpg", Status: model.StatusReady},
		{Source: "b.jpg", Destination: "b2.jpg", Status: model.StatusReady},
		{Source: "c.jpg", Status: model.StatusSkipped, Reason: "unsupported"},
	}

	var calls int32
	action := func(ctx context.Context, item model.PlanItem) (map[string]any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}

	bus, result := Run(context.Background(), items, action, Options{Operation: "rename", Workers: 2})

	var last struct{ done bool }
	for ev := range bus.Events() {
		if ev.Done {
			last.done = true
			if ev.Canceled {
				t.Fatalf("unexpected canceled=true")
			}
		}
	}
	if !last.done {
		t.Fatalf("never received a Done event")
	}

	final := result.ToExecResult()
	if final.Processed != 3 || final.Succeeded != 2 || final.Skipped != 1 || final.Failed != 0 {
		t.Fatalf("got %+v", final)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("action called %d times, want 2 (skipped items bypass the action)", calls)
	}
}

func TestRun_ActionFailureRecordsFailed(t *testing.T) {
	items := []model.PlanItem{
		{Source: "a.jpg", Destination: "a2.jpg", Status: model.StatusReady},
	}
	action := func(ctx context.Context, item model.PlanItem) (map[string]any, error) {
		return nil, engineerr.Wrap(engineerr.Io, "rename", errors.New("disk full"), "write failed")
	}

	bus, result := Run(context.Background(), items, action, Options{Operation: "rename"})
	for range bus.Events() {
	}

	final := result.ToExecResult()
	if final.Failed != 1 || final.Succeeded != 0 {
		t.Fatalf("got %+v", final)
	}
	if final.Details[0].Status != model.StatusFailed {
		t.Fatalf("detail status = %s, want failed", final.Details[0].Status)
	}
}

func TestRun_PreCanceledContextSkipsEveryItem(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []model.PlanItem{
		{Source: "a.jpg", Status: model.StatusReady},
		{Source: "b.jpg", Status: model.StatusReady},
	}

	var calls int32
	action := func(ctx context.Context, item model.PlanItem) (map[string]any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}

	bus, result := Run(ctx, items, action, Options{Operation: "delete", Workers: 1})
	var sawDone, doneCanceled bool
	for ev := range bus.Events() {
		if ev.Done {
			sawDone, doneCanceled = true, ev.Canceled
		}
	}
	if !sawDone || !doneCanceled {
		t.Fatalf("expected a Done event with Canceled=true, sawDone=%v canceled=%v", sawDone, doneCanceled)
	}

	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("action called %d times, want 0 (context already canceled before dispatch)", calls)
	}
	r := result.ToExecResult()
	if r.Skipped != 2 || !r.Canceled {
		t.Fatalf("got %+v", r)
	}
	for _, d := range r.Details {
		if d.Reason != "canceled" {
			t.Fatalf("detail reason = %q, want canceled", d.Reason)
		}
	}
}

func TestRun_CancelDuringRunStopsLaterDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	items := []model.PlanItem{
		{Source: "a.jpg", Status: model.StatusReady},
		{Source: "b.jpg", Status: model.StatusReady},
	}

	action := func(ctx context.Context, item model.PlanItem) (map[string]any, error) {
		if item.Source == "a.jpg" {
			cancel()
			// Give the driver goroutine a chance to observe cancellation
			// before this item's own completion is recorded.
			time.Sleep(20 * time.Millisecond)
		}
		return nil, nil
	}

	// Workers=1 makes dispatch of b.jpg wait for a worker slot freed only
	// once a.jpg's action returns, by which point ctx is canceled.
	bus, result := Run(ctx, items, action, Options{Operation: "delete", Workers: 1})
	for range bus.Events() {
	}

	r := result.ToExecResult()
	if !r.Canceled {
		t.Fatalf("expected run to report canceled, got %+v", r)
	}
	if r.Processed != 2 {
		t.Fatalf("expected both items accounted for, got %+v", r)
	}
	for _, d := range r.Details {
		if d.Source == "b.jpg" && (d.Status != model.StatusSkipped || d.Reason != "canceled") {
			t.Fatalf("b.jpg should not be dispatched after cancel, got %+v", d)
		}
	}
}
