package ops

import (
	"context"

	"filectl/internal/atomicfs"
	"filectl/internal/model"
	"filectl/internal/plan"
	"filectl/internal/progress"
)

// FlattenRequest is the flatten façade's request envelope.
type FlattenRequest struct {
	plan.FlattenRequest
	Workers int
}

// PreviewFlatten returns the flatten plan verbatim.
func PreviewFlatten(req FlattenRequest) (model.PreviewResponse, error) {
	items, err := plan.PlanFlatten(req.FlattenRequest)
	if err != nil {
		return model.PreviewResponse{}, err
	}
	return model.PreviewResponse{Items: items}, nil
}

// ExecuteFlatten plans then runs the flatten operation (§4.8 Action
// summary: copy source bytes to destination via temp-replace; source is
// not removed).
func ExecuteFlatten(ctx context.Context, req FlattenRequest) (*progress.Bus, <-chan model.ExecResult, error) {
	items, err := plan.PlanFlatten(req.FlattenRequest)
	if err != nil {
		return nil, nil, err
	}
	bus, resultCh := runAsync(ctx, items, flattenAction, "flatten", req.Workers, nil)
	return bus, resultCh, nil
}

func flattenAction(ctx context.Context, item model.PlanItem) (map[string]any, error) {
	return nil, atomicfs.CopyFile(item.Source, item.Destination)
}
