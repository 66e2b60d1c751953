package ops

import (
	"context"
	"os"

	"filectl/internal/atomicfs"
	"filectl/internal/model"
	"filectl/internal/plan"
	"filectl/internal/progress"
)

// RenameRequest is the rename façade's request envelope: the planner input
// plus the executor's worker-count override.
type RenameRequest struct {
	plan.RenameRequest
	Workers int
}

// PreviewRename returns the rename plan verbatim, without mutating anything.
func PreviewRename(req RenameRequest) (model.PreviewResponse, error) {
	items, err := plan.PlanRename(req.RenameRequest)
	if err != nil {
		return model.PreviewResponse{}, err
	}
	return model.PreviewResponse{Items: items}, nil
}

// ExecuteRename plans the rename operation, then runs it asynchronously
// (§4.8 Action summary: temp-copy source → destination; on same volume use
// atomic rename; on success the source is removed). The caller drains the
// returned bus to observe progress and reads the single value off the
// result channel once the bus closes.
func ExecuteRename(ctx context.Context, req RenameRequest) (*progress.Bus, <-chan model.ExecResult, error) {
	items, err := plan.PlanRename(req.RenameRequest)
	if err != nil {
		return nil, nil, err
	}
	bus, resultCh := runAsync(ctx, items, renameAction, "rename", req.Workers, nil)
	return bus, resultCh, nil
}

func renameAction(ctx context.Context, item model.PlanItem) (map[string]any, error) {
	if err := os.Rename(item.Source, item.Destination); err == nil {
		return nil, nil
	}

	// Same-volume rename failed (or the paths cross a volume boundary):
	// fall back to a temp-copy onto the destination followed by removing
	// the source, still atomic on the destination side.
	if err := atomicfs.CopyFile(item.Source, item.Destination); err != nil {
		return nil, err
	}
	if err := atomicfs.RemoveFile(item.Source); err != nil {
		return nil, err
	}
	return nil, nil
}
