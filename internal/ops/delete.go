package ops

import (
	"context"

	"filectl/internal/atomicfs"
	"filectl/internal/executor"
	"filectl/internal/model"
	"filectl/internal/plan"
	"filectl/internal/progress"
)

// TrashFunc is the opaque "move to recycle bin" primitive (§1 Out of scope:
// the OS trash integration is consumed, not implemented, here). Required
// when Mode is plan.DeleteTrash; ExecuteDelete rejects the request
// otherwise.
type TrashFunc func(path string) error

// DeleteRequest is the delete façade's request envelope.
type DeleteRequest struct {
	plan.DeleteRequest
	Workers int
	Trash   TrashFunc
}

// PreviewDelete returns the delete plan verbatim.
func PreviewDelete(req DeleteRequest) (model.PreviewResponse, error) {
	items, err := plan.PlanDelete(req.DeleteRequest)
	if err != nil {
		return model.PreviewResponse{}, err
	}
	return model.PreviewResponse{Items: items}, nil
}

// ExecuteDelete plans then runs the delete operation (§4.8 Action
// summaries: direct unlinks the source; trash invokes the caller-supplied
// TrashFunc; retreat moves the source to RetreatDir via Atomic FS).
func ExecuteDelete(ctx context.Context, req DeleteRequest) (*progress.Bus, <-chan model.ExecResult, error) {
	if req.Mode == plan.DeleteTrash && req.Trash == nil {
		return nil, nil, errMissingCollaborator("ops.ExecuteDelete", "trash mode requires a TrashFunc")
	}

	items, err := plan.PlanDelete(req.DeleteRequest)
	if err != nil {
		return nil, nil, err
	}

	bus, resultCh := runAsync(ctx, items, deleteAction(req.Mode, req.Trash), "delete", req.Workers, nil)
	return bus, resultCh, nil
}

func deleteAction(mode plan.DeleteMode, trash TrashFunc) executor.Action {
	return func(ctx context.Context, item model.PlanItem) (map[string]any, error) {
		switch mode {
		case plan.DeleteTrash:
			return nil, trash(item.Source)
		case plan.DeleteRetreat:
			if err := atomicfs.CopyFile(item.Source, item.Destination); err != nil {
				return nil, err
			}
			return nil, atomicfs.RemoveFile(item.Source)
		default: // plan.DeleteDirect
			return nil, atomicfs.RemoveFile(item.Source)
		}
	}
}
