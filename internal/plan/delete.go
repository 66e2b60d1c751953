package plan

import (
	"path/filepath"

	"filectl/internal/model"
)

// DeleteMode selects where a delete plan item's content ends up (§4.6
// Delete plan).
type DeleteMode string

const (
	DeleteDirect  DeleteMode = "direct"
	DeleteTrash   DeleteMode = "trash"
	DeleteRetreat DeleteMode = "retreat"
)

// DeleteRequest is the delete façade's planner input.
type DeleteRequest struct {
	Entries        []model.FileEntry
	Extensions     model.ExtensionSet // required non-empty
	Mode           DeleteMode
	RetreatDir     string
	ConflictPolicy model.ConflictPolicy
}

// PlanDelete builds the delete operation's plan. direct and trash items
// carry no destination (the trash primitive's target is opaque); retreat
// items resolve a destination under RetreatDir the same way every other
// operation resolves collisions; trash ignores ConflictPolicy entirely
// since its destination isn't ours to reason about.
func PlanDelete(req DeleteRequest) ([]model.PlanItem, error) {
	if len(req.Extensions) == 0 {
		return nil, errInvalidRequest("plan.PlanDelete", "extension set must not be empty")
	}

	cache := newCaseSensitivityCache()
	var alloc *allocator
	if req.Mode == DeleteRetreat {
		alloc = allocatorFor(cache, req.RetreatDir)
	}

	items := make([]model.PlanItem, 0, len(req.Entries))
	for _, e := range req.Entries {
		if !req.Extensions.Matches(e.Path) {
			continue
		}
		switch req.Mode {
		case DeleteDirect, DeleteTrash:
			items = append(items, ready(e.Path, "", nil))
		case DeleteRetreat:
			name := filepath.Base(e.Path)
			stem, ext := stemAndExt(name)
			dest, skipped, reason := alloc.Resolve(req.RetreatDir, stem, ext, req.ConflictPolicy)
			if skipped {
				items = append(items, skip(e.Path, reason))
				continue
			}
			items = append(items, ready(e.Path, dest, nil))
		default:
			items = append(items, skip(e.Path, "unknown delete mode"))
		}
	}
	return items, nil
}
