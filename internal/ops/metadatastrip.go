package ops

import (
	"context"
	"os"

	"filectl/internal/atomicfs"
	"filectl/internal/engineerr"
	"filectl/internal/executor"
	"filectl/internal/exifengine"
	"filectl/internal/model"
	"filectl/internal/plan"
	"filectl/internal/progress"
)

// MetadataStripRequest is the metadata-strip façade's request envelope.
type MetadataStripRequest struct {
	plan.MetadataStripRequest
	Workers int
}

// PreviewMetadataStrip returns the metadata-strip plan verbatim.
func PreviewMetadataStrip(req MetadataStripRequest) (model.PreviewResponse, error) {
	items, err := plan.PlanMetadataStrip(req.MetadataStripRequest)
	if err != nil {
		return model.PreviewResponse{}, err
	}
	return model.PreviewResponse{Items: items}, nil
}

// ExecuteMetadataStrip plans then runs the metadata-strip operation (§4.8
// Action summary: in-place atomic rewrite removing tags/segments per
// category mask; entropy-coded data untouched).
func ExecuteMetadataStrip(ctx context.Context, req MetadataStripRequest) (*progress.Bus, <-chan model.ExecResult, error) {
	items, err := plan.PlanMetadataStrip(req.MetadataStripRequest)
	if err != nil {
		return nil, nil, err
	}
	action := metadataStripAction(req.Categories)
	bus, resultCh := runAsync(ctx, items, action, "metadataStrip", req.Workers, nil)
	return bus, resultCh, nil
}

func metadataStripAction(categories model.CategorySet) executor.Action {
	return func(ctx context.Context, item model.PlanItem) (map[string]any, error) {
		raw, err := os.ReadFile(item.Source)
		if err != nil {
			return nil, engineerr.Wrap(engineerr.Io, "ops.metadataStripAction", err, "read source")
		}

		out, changed, err := exifengine.StripCategories(raw, categories)
		if err != nil {
			return nil, err
		}
		if !changed {
			return nil, engineerr.Newf(engineerr.Planner, "ops.metadataStripAction", "%s: no matching metadata to strip", item.Source)
		}

		info, statErr := os.Stat(item.Source)
		perm := os.FileMode(0o644)
		if statErr == nil {
			perm = info.Mode().Perm()
		}
		if err := atomicfs.WriteFile(item.Destination, out, perm); err != nil {
			return nil, err
		}
		return nil, nil
	}
}
