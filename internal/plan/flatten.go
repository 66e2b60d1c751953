package plan

import (
	"path/filepath"
	"time"

	"filectl/internal/model"
)

// FlattenRequest is the flatten façade's planner input. Entries are
// expected to already be collected recursively from InputDir (the
// collector's job); the planner only resolves destinations.
type FlattenRequest struct {
	Entries        []model.FileEntry
	InputDir       string
	OutputDir      string // empty: default timestamped sibling of InputDir
	ConflictPolicy model.ConflictPolicy
	At             time.Time // clock used for the default OutputDir's timestamp
}

// PlanFlatten builds the flatten operation's plan: every entry's
// destination is OutputDir/basename, with intra-plan collisions resolved
// by ConflictPolicy.
func PlanFlatten(req FlattenRequest) ([]model.PlanItem, error) {
	outDir := req.OutputDir
	if outDir == "" {
		outDir = defaultTimestampedDir(req.InputDir, "flattened", req.At)
	}

	cache := newCaseSensitivityCache()
	alloc := allocatorFor(cache, outDir)

	items := make([]model.PlanItem, 0, len(req.Entries))
	for _, e := range req.Entries {
		name := filepath.Base(e.Path)
		stem, ext := stemAndExt(name)
		dest, skipped, reason := alloc.Resolve(outDir, stem, ext, req.ConflictPolicy)
		if skipped {
			items = append(items, skip(e.Path, reason))
			continue
		}
		items = append(items, ready(e.Path, dest, nil))
	}
	return items, nil
}
