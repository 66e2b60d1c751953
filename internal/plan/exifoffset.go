package plan

import (
	"os"
	"time"

	"filectl/internal/exifengine"
	"filectl/internal/model"
)

// ExifOffsetRequest is the exif-offset façade's planner input. Entries not
// ending in .jpg/.jpeg are skipped with reason "unsupported" rather than
// filtered silently, so the façade's details list accounts for every input.
type ExifOffsetRequest struct {
	Entries []model.FileEntry
	Delta   time.Duration
}

// PlanExifOffset reads each entry's datetime tags and determines whether
// the offset is applicable in-place: unsupported extension, no datetime
// tag present, or an out-of-range result are all skip conditions, never
// failures, since nothing has been mutated yet.
func PlanExifOffset(req ExifOffsetRequest) ([]model.PlanItem, error) {
	items := make([]model.PlanItem, 0, len(req.Entries))
	for _, e := range req.Entries {
		if !isJPEGPath(e.Path) {
			items = append(items, skip(e.Path, "unsupported"))
			continue
		}

		raw, err := os.ReadFile(e.Path)
		if err != nil {
			items = append(items, skip(e.Path, "unreadable"))
			continue
		}

		dts, err := exifengine.ReadDateTimes(raw)
		if err != nil || len(dts) == 0 {
			items = append(items, skip(e.Path, "no datetime"))
			continue
		}

		outOfRange := false
		for _, dt := range dts {
			if !dt.Offset(int64(req.Delta / time.Second)).InRange() {
				outOfRange = true
				break
			}
		}
		if outOfRange {
			items = append(items, skip(e.Path, "offset result out of range"))
			continue
		}

		item := ready(e.Path, e.Path, map[string]any{"fieldsToShift": datetimeFieldNames(dts)})
		items = append(items, item)
	}
	return items, nil
}

func datetimeFieldNames(dts map[exifengine.DateTimeField]model.ExifDateTime) []string {
	out := make([]string, 0, len(dts))
	for f := range dts {
		out = append(out, string(f))
	}
	return out
}
