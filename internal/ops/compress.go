package ops

import (
	"context"
	"os"

	"filectl/internal/atomicfs"
	"filectl/internal/engineerr"
	"filectl/internal/executor"
	"filectl/internal/jpegcodec"
	"filectl/internal/model"
	"filectl/internal/plan"
	"filectl/internal/progress"
)

// CompressRequest is the compress façade's request envelope.
type CompressRequest struct {
	plan.CompressRequest
	Workers      int
	PreserveEXIF bool
}

// CompressPreviewResponse additionally carries the solver's effective
// parameters, since the plain model.PreviewResponse has no room for them.
type CompressPreviewResponse struct {
	model.PreviewResponse
	EffectiveResizePercent int
	EffectiveQuality       int
	EstimatedTotalBytes    int64
}

// PreviewCompress returns the compress plan verbatim, including the
// target-size solver's effective (resize, quality) pair when a target size
// was requested.
func PreviewCompress(req CompressRequest) (CompressPreviewResponse, error) {
	p, err := plan.PlanCompress(req.CompressRequest)
	if err != nil {
		return CompressPreviewResponse{}, err
	}
	return CompressPreviewResponse{
		PreviewResponse:        model.PreviewResponse{Items: p.Items},
		EffectiveResizePercent: p.EffectiveResizePercent,
		EffectiveQuality:       p.EffectiveQuality,
		EstimatedTotalBytes:    p.EstimatedTotalBytes,
	}, nil
}

// ExecuteCompress plans then runs the compress operation (§4.8 Action
// summary: decode → resize → encode at effective quality; optionally carry
// over EXIF; write to destination via temp-replace).
//
// One compress-estimate-progress event is queued per ready item ahead of
// the executor's own events (§4.9, §6), so a caller draining the returned
// bus sees the solver's per-file estimate land before the first real
// completion event.
func ExecuteCompress(ctx context.Context, req CompressRequest) (*progress.Bus, <-chan model.ExecResult, error) {
	p, err := plan.PlanCompress(req.CompressRequest)
	if err != nil {
		return nil, nil, err
	}

	preEvents := make([]progress.Event, 0, len(p.Items))
	for _, item := range p.Items {
		if item.Status != model.StatusReady {
			continue
		}
		preEvents = append(preEvents, progress.Event{
			Operation:   "compress-estimate-progress",
			CurrentPath: item.Source,
		})
	}

	action := compressAction(p.EffectiveResizePercent, p.EffectiveQuality, req.PreserveEXIF)
	bus, resultCh := runAsync(ctx, p.Items, action, "compress", req.Workers, preEvents)
	return bus, resultCh, nil
}

func compressAction(resizePercent, quality int, preserveEXIF bool) executor.Action {
	return func(ctx context.Context, item model.PlanItem) (map[string]any, error) {
		raw, err := os.ReadFile(item.Source)
		if err != nil {
			return nil, engineerr.Wrap(engineerr.Io, "ops.compressAction", err, "read source")
		}

		out, err := jpegcodec.Recompress(raw, jpegcodec.RecompressOptions{
			ResizePercent: resizePercent,
			Quality:       quality,
			PreserveEXIF:  preserveEXIF,
		})
		if err != nil {
			return nil, err
		}

		info, statErr := os.Stat(item.Source)
		perm := os.FileMode(0o644)
		if statErr == nil {
			perm = info.Mode().Perm()
		}
		if err := atomicfs.WriteFile(item.Destination, out, perm); err != nil {
			return nil, err
		}
		return map[string]any{"finalSize": len(out)}, nil
	}
}
