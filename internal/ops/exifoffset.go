package ops

import (
	"context"
	"os"
	"time"

	"filectl/internal/atomicfs"
	"filectl/internal/engineerr"
	"filectl/internal/exifengine"
	"filectl/internal/model"
	"filectl/internal/plan"
	"filectl/internal/progress"
)

// ExifOffsetRequest is the exif-offset façade's request envelope.
type ExifOffsetRequest struct {
	plan.ExifOffsetRequest
	Workers int
}

// PreviewExifOffset returns the exif-offset plan verbatim.
func PreviewExifOffset(req ExifOffsetRequest) (model.PreviewResponse, error) {
	items, err := plan.PlanExifOffset(req.ExifOffsetRequest)
	if err != nil {
		return model.PreviewResponse{}, err
	}
	return model.PreviewResponse{Items: items}, nil
}

// ExecuteExifOffset plans then runs the exif-offset operation (§4.8 Action
// summary: in-place atomic rewrite of the APP1 segment with shifted
// datetime fields).
func ExecuteExifOffset(ctx context.Context, req ExifOffsetRequest) (*progress.Bus, <-chan model.ExecResult, error) {
	items, err := plan.PlanExifOffset(req.ExifOffsetRequest)
	if err != nil {
		return nil, nil, err
	}
	action := exifOffsetAction(req.Delta)
	bus, resultCh := runAsync(ctx, items, action, "exifOffset", req.Workers, nil)
	return bus, resultCh, nil
}

func exifOffsetAction(delta time.Duration) func(ctx context.Context, item model.PlanItem) (map[string]any, error) {
	return func(ctx context.Context, item model.PlanItem) (map[string]any, error) {
		raw, err := os.ReadFile(item.Source)
		if err != nil {
			return nil, engineerr.Wrap(engineerr.Io, "ops.exifOffsetAction", err, "read source")
		}

		out, changed, err := exifengine.OffsetDateTimes(raw, delta)
		if err != nil {
			return nil, err
		}
		if len(changed) == 0 {
			return nil, exifengine.ErrNoDateTimeTag(item.Source)
		}

		info, statErr := os.Stat(item.Source)
		perm := os.FileMode(0o644)
		if statErr == nil {
			perm = info.Mode().Perm()
		}
		if err := atomicfs.WriteFile(item.Destination, out, perm); err != nil {
			return nil, err
		}

		names := make([]string, 0, len(changed))
		for _, f := range changed {
			names = append(names, string(f))
		}
		return map[string]any{"fieldsShifted": names}, nil
	}
}
