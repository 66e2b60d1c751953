// Package plan turns collected files and an operation request into an
// ordered list of model.PlanItem without touching the files being planned.
// Besides the stat/existence checks destination-collision resolution
// requires, its only filesystem write is the case-sensitivity probe: an
// empty file created and removed at once in the destination directory (or
// its nearest existing ancestor).
//
// Each of the six sub-planners (rename, delete, compress, flatten,
// exifOffset, metadataStrip) is grounded in
// Fauli-music-janitor/internal/plan/planner.go's destination-collision and
// path-sanitization approach: a plan-local reservation map keyed on a
// normalized path, filled in scan order, consulted before any item commits
// to a destination.
package plan

import (
	"os"
	"path/filepath"
	"time"

	"filectl/internal/atomicfs"
	"filectl/internal/engineerr"
	"filectl/internal/model"
)

// allocator aliases atomicfs.Allocator so the sub-planner files don't each
// repeat the import.
type allocator = atomicfs.Allocator

// errInvalidRequest builds a façade-level InvalidRequest error (§7): a
// condition detectable before any entry is even examined, never a per-item
// skip.
func errInvalidRequest(op, format string, args ...any) error {
	return engineerr.Newf(engineerr.InvalidRequest, op, format, args...)
}

// caseSensitivityCache probes and remembers whether a destination directory
// is case-sensitive, per SPEC_FULL.md §9: probed once per directory by
// creating a lower-case probe file and stat-ing its upper-case name, not
// assumed from GOOS. Grounded in
// Fauli-music-janitor/internal/plan/planner.go's
// util.DetectFilesystemCaseSensitivity.
type caseSensitivityCache struct {
	known map[string]bool
}

func newCaseSensitivityCache() *caseSensitivityCache {
	return &caseSensitivityCache{known: make(map[string]bool)}
}

// sensitive reports whether dir's filesystem distinguishes "probe" from
// "PROBE". Defaults to true (case-sensitive) if the probe itself fails,
// since that is the direction that never silently merges two distinct
// destinations.
func (c *caseSensitivityCache) sensitive(dir string) bool {
	if v, ok := c.known[dir]; ok {
		return v
	}
	v := probeCaseSensitivity(dir)
	c.known[dir] = v
	return v
}

func probeCaseSensitivity(dir string) bool {
	// A destination directory that does not exist yet is probed through its
	// nearest existing ancestor, so planning never creates directories.
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return true
		}
		dir = parent
	}
	lower := filepath.Join(dir, ".filectl-case-probe")
	upper := filepath.Join(dir, ".FILECTL-CASE-PROBE")

	f, err := os.OpenFile(lower, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return true
	}
	f.Close()
	defer os.Remove(lower)

	_, err = os.Stat(upper)
	// If stat(upper) succeeds and refers to the same file we just created
	// under a different case, the filesystem folds case: insensitive.
	return err != nil
}

// allocatorFor builds a collision allocator for dir, keying reservations by
// the directory's probed case-sensitivity rather than the platform default.
func allocatorFor(c *caseSensitivityCache, dir string) *atomicfs.Allocator {
	if c.sensitive(dir) {
		return atomicfs.NewAllocatorWithCaseFold(func(s string) string { return s })
	}
	return atomicfs.NewAllocatorWithCaseFold(toLower)
}

func toLower(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// skip builds a skipped PlanItem for source with the given reason.
func skip(source model.FilePath, reason string) model.PlanItem {
	return model.PlanItem{Source: source, Status: model.StatusSkipped, Reason: reason}
}

// ready builds a ready PlanItem with the given destination and extras.
func ready(source, dest model.FilePath, extras map[string]any) model.PlanItem {
	return model.PlanItem{Source: source, Destination: dest, Status: model.StatusReady, Extras: extras}
}

// stemAndExt splits a filename into its stem and extension (extension
// includes the leading dot, in its original case).
func stemAndExt(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	stem = name[:len(name)-len(ext)]
	return stem, ext
}

// defaultTimestampedDir builds the "<parent>/<name>_<suffix>_<YYYYMMDDHHMMSS>"
// directory naming scheme shared by compress and flatten's default output
// directory (§4.6).
func defaultTimestampedDir(inputDir, suffix string, at time.Time) string {
	parent := filepath.Dir(inputDir)
	name := filepath.Base(inputDir)
	return filepath.Join(parent, name+"_"+suffix+"_"+at.Format("20060102150405"))
}
