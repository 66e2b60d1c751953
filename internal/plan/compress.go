package plan

import (
	"math"
	"path/filepath"
	"time"

	"filectl/internal/model"
)

// CompressRequest is the compress façade's planner input. Either an
// explicit (ResizePercent, Quality) pair or a TargetSizeBytes goal is
// supplied; when TargetSizeBytes is set it takes precedence and the
// explicit pair is ignored.
type CompressRequest struct {
	Entries         []model.FileEntry
	InputDir        string
	OutputDir       string // empty: default timestamped sibling of InputDir
	ConflictPolicy  model.ConflictPolicy
	ResizePercent   int
	Quality         int
	TargetSizeBytes int64
	Tolerance       float64 // fraction, e.g. 0.10 for ±10%
	At              time.Time
}

// CompressPlan additionally reports the effective parameters the solver (or
// the caller's explicit values) settled on, since every ready item shares
// them (§4.6, §8 scenario 2).
type CompressPlan struct {
	Items                 []model.PlanItem
	EffectiveResizePercent int
	EffectiveQuality       int
	EstimatedTotalBytes    int64
}

// PlanCompress builds the compress operation's plan.
func PlanCompress(req CompressRequest) (CompressPlan, error) {
	var jpegEntries []model.FileEntry
	for _, e := range req.Entries {
		if isJPEGPath(e.Path) {
			jpegEntries = append(jpegEntries, e)
		}
	}

	resizePercent, quality := req.ResizePercent, req.Quality
	if req.TargetSizeBytes > 0 {
		resizePercent, quality = solveTargetSize(jpegEntries, req.TargetSizeBytes, req.Tolerance)
	}
	if resizePercent <= 0 {
		resizePercent = 100
	}
	if quality <= 0 {
		quality = 85
	}

	outDir := req.OutputDir
	if outDir == "" {
		outDir = defaultTimestampedDir(req.InputDir, "compressed", req.At)
	}

	cache := newCaseSensitivityCache()
	alloc := allocatorFor(cache, outDir)

	var estimatedTotal int64
	items := make([]model.PlanItem, 0, len(req.Entries))
	for _, e := range req.Entries {
		if !isJPEGPath(e.Path) {
			items = append(items, skip(e.Path, "unsupported"))
			continue
		}

		stem, ext := stemAndExt(filepath.Base(e.Path))
		dest, skipped, reason := alloc.Resolve(outDir, stem, ext, req.ConflictPolicy)
		if skipped {
			items = append(items, skip(e.Path, reason))
			continue
		}

		est := estimateCompressedSize(e.Size, resizePercent, quality)
		estimatedTotal += est
		items = append(items, ready(e.Path, dest, map[string]any{
			"effectiveResizePercent": resizePercent,
			"effectiveQuality":       quality,
			"estimatedSize":          est,
		}))
	}

	return CompressPlan{
		Items:                  items,
		EffectiveResizePercent: resizePercent,
		EffectiveQuality:       quality,
		EstimatedTotalBytes:    estimatedTotal,
	}, nil
}

// estimateCompressedSize applies the heuristic size model
// size ≈ source × (r/100)^2 × (q/100)^1.25 (§4.6) to one file.
func estimateCompressedSize(sourceSize uint64, resizePercent, quality int) int64 {
	r := float64(resizePercent) / 100
	q := float64(quality) / 100
	return int64(float64(sourceSize) * r * r * math.Pow(q, 1.25))
}

// solveTargetSize finds a (resizePercent, quality) pair whose estimated
// total size lands within tolerance of targetBytes, per the Open Question
// decision recorded in DESIGN.md and SPEC_FULL.md §9: resize is bisected
// toward the target first (quality held at 100), each step halving the
// remaining [floor, ceiling] search interval, capped at 24 iterations; if
// resize bottoms out at its 10% floor still over target, quality is then
// bisected the same way down to its 1% floor. The model is monotonically
// increasing in both parameters, so bisection toward the target (not toward
// the floor) converges into the tolerance band whenever one exists between
// the floor and 100%, and otherwise settles at the floor that gets closest.
func solveTargetSize(entries []model.FileEntry, targetBytes int64, tolerance float64) (resizePercent, quality int) {
	var totalSize uint64
	for _, e := range entries {
		totalSize += e.Size
	}
	if totalSize == 0 || targetBytes <= 0 {
		return 100, 100
	}
	if tolerance <= 0 {
		tolerance = 0.10
	}

	estimate := func(r, q int) float64 {
		rr := float64(r) / 100
		qq := float64(q) / 100
		return float64(totalSize) * rr * rr * math.Pow(qq, 1.25)
	}

	target := float64(targetBytes)
	tol := target * tolerance

	// Phase 1: bisect resize percent over [10, 100] with quality fixed at
	// 100, since the model is monotonically increasing in r.
	q := 100
	rLo, rHi := 10, 100
	for iter := 0; iter < 24 && rHi-rLo > 1; iter++ {
		r := (rLo + rHi) / 2
		diff := estimate(r, q) - target
		if math.Abs(diff) <= tol {
			return r, q
		}
		if diff > 0 {
			rHi = r
		} else {
			rLo = r
		}
	}

	// rLo is the largest probed resize percent whose estimate did not
	// exceed target (or the 10% floor if every probe was over); it is the
	// closest-without-going-over candidate.
	if math.Abs(estimate(rLo, q)-target) <= tol {
		return rLo, q
	}
	if estimate(rLo, q) <= target {
		// The rLo estimate is under target: nothing left to
		// tighten by lowering quality, since lowering it only shrinks
		// further.
		return rLo, q
	}

	// Phase 2: resize is at its floor and still over target; bisect
	// quality over [1, 100] the same way.
	qLo, qHi := 1, 100
	for iter := 0; iter < 24 && qHi-qLo > 1; iter++ {
		qq := (qLo + qHi) / 2
		diff := estimate(rLo, qq) - target
		if math.Abs(diff) <= tol {
			return rLo, qq
		}
		if diff > 0 {
			qHi = qq
		} else {
			qLo = qq
		}
	}
	return rLo, qLo
}
