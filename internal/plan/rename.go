package plan

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"filectl/internal/atomicfs"
	"filectl/internal/exifengine"
	"filectl/internal/model"
)

// DateTimeMode selects the datetime source the rename planner resolves per
// item (§4.6 Rename plan).
type DateTimeMode string

const (
	ModeCaptureThenModified DateTimeMode = "captureThenModified"
	ModeModifiedOnly        DateTimeMode = "modifiedOnly"
	ModeCurrentTime         DateTimeMode = "currentTime"
)

// VideoProbeFunc is the opaque "extract capture datetime" collaborator for
// video files (§1 Out of scope: consumed, not implemented, here). A nil
// func simply means no video tier is available; the resolver falls through
// to modified time.
type VideoProbeFunc func(path string) (time.Time, bool)

// RenameRequest is the rename façade's planner input.
type RenameRequest struct {
	Entries        []model.FileEntry
	Template       string
	Mode           DateTimeMode
	OutputDir      string // empty: rename in place, alongside the source
	ConflictPolicy model.ConflictPolicy
	// ExecTime is resolved once by the façade and shared by every item in
	// the run, per §4.6's "currentTime ... shared across the run so all
	// items receive identical second".
	ExecTime   time.Time
	VideoProbe VideoProbeFunc
}

// PlanRename builds the rename operation's plan. The template is parsed
// once up front: a malformed template is a façade-level error, not a
// per-item skip.
func PlanRename(req RenameRequest) ([]model.PlanItem, error) {
	tmpl, err := ParseTemplate(req.Template)
	if err != nil {
		return nil, err
	}

	cache := newCaseSensitivityCache()
	allocators := make(map[string]*atomicfs.Allocator)
	seqCounters := make(map[string]int)

	items := make([]model.PlanItem, 0, len(req.Entries))
	for _, e := range req.Entries {
		destDir := req.OutputDir
		if destDir == "" {
			destDir = filepath.Dir(e.Path)
		}

		base := filepath.Base(e.Path)
		orig, extWithDot := stemAndExt(base)
		ext := strings.TrimPrefix(extWithDot, ".")

		resolved := resolveDateTime(e, req.Mode, req.VideoProbe, req.ExecTime)

		seqCounters[destDir]++
		ctx := RenderContext{
			Resolved: resolved,
			ExecTime: req.ExecTime,
			Seq:      seqCounters[destDir],
			Orig:     orig,
			Ext:      ext,
		}
		stem := tmpl.Render(ctx)
		if strings.TrimSpace(stem) == "" {
			items = append(items, skip(e.Path, "template yields empty"))
			continue
		}

		finalExt := extWithDot
		if tmpl.UsesExt() {
			finalExt = ""
		}

		alloc := allocators[destDir]
		if alloc == nil {
			alloc = allocatorFor(cache, destDir)
			allocators[destDir] = alloc
		}
		dest, skipped, reason := alloc.Resolve(destDir, stem, finalExt, req.ConflictPolicy)
		if skipped {
			items = append(items, skip(e.Path, reason))
			continue
		}
		items = append(items, ready(e.Path, dest, nil))
	}
	return items, nil
}

// resolveDateTime picks the datetime source for one entry per mode.
// captureThenModified tries EXIF, then the video probe, then modified time;
// modifiedOnly always uses modified time; currentTime uses the run's shared
// execution time for every item.
func resolveDateTime(e model.FileEntry, mode DateTimeMode, probe VideoProbeFunc, execTime time.Time) time.Time {
	switch mode {
	case ModeModifiedOnly:
		return e.Modified
	case ModeCurrentTime:
		return execTime
	default:
		if isJPEGPath(e.Path) {
			if raw, err := os.ReadFile(e.Path); err == nil {
				if dts, err := exifengine.ReadDateTimes(raw); err == nil {
					if dt, ok := dts[exifengine.FieldDateTimeOriginal]; ok {
						return dt.Time
					}
				}
			}
		}
		if probe != nil {
			if t, ok := probe(e.Path); ok {
				return t
			}
		}
		return e.Modified
	}
}

func isJPEGPath(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return ext == "jpg" || ext == "jpeg"
}
