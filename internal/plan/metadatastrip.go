package plan

import (
	"os"

	"filectl/internal/exifengine"
	"filectl/internal/model"
)

// MetadataStripRequest is the metadata-strip façade's planner input.
type MetadataStripRequest struct {
	Entries    []model.FileEntry
	Categories model.CategorySet
}

// PlanMetadataStrip parses each entry's APP segments far enough to
// determine which categories are actually present, skipping items whose
// intersection with the requested mask is empty (§4.6 MetadataStrip plan).
func PlanMetadataStrip(req MetadataStripRequest) ([]model.PlanItem, error) {
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

		found, err := exifengine.DetectCategories(raw)
		if err != nil {
			items = append(items, skip(e.Path, "codec error"))
			continue
		}

		if !found.Intersects(req.Categories) {
			items = append(items, skip(e.Path, "no matching metadata"))
			continue
		}

		extras := map[string]any{
			"foundCategories": categoryNames(found),
			"tagsToStrip":     categoryNames(intersect(found, req.Categories)),
			"hasIptc":         found.Has(model.CategoryIPTC),
			"hasXmp":          found.Has(model.CategoryXMP),
		}
		items = append(items, ready(e.Path, e.Path, extras))
	}
	return items, nil
}

func intersect(a, b model.CategorySet) model.CategorySet {
	out := model.NewCategorySet()
	for c := range a {
		if b.Has(c) {
			out.Add(c)
		}
	}
	return out
}

func categoryNames(s model.CategorySet) []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, string(c))
	}
	return out
}
