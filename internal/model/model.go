// Package model holds the data shapes shared across every component of the
// engine: the file collector's output, the planner's PlanItem, the
// executor's ExecResult, and the small enums (ConflictPolicy,
// MetadataCategory) that the six operation façades all share.
//
// Nothing in this package performs I/O. FileEntry, PlanItem and ExecResult
// are created per request and discarded when the request completes; there
// is no cross-request state here.
package model

import "time"

// FilePath is an absolute, OS-canonical path string. See internal/pathutil
// for the normalization that produces one.
type FilePath = string

// FileEntry is one file discovered by the collector. Immutable once built.
type FileEntry struct {
	Path     FilePath
	Size     uint64
	Modified time.Time
}

// ExtensionSet is a case-insensitive set of extensions without a leading dot.
type ExtensionSet map[string]struct{}

// NewExtensionSet builds a set from a list of extensions, lower-casing and
// stripping any leading dot so callers can pass either "jpg" or ".jpg".
func NewExtensionSet(exts ...string) ExtensionSet {
	set := make(ExtensionSet, len(exts))
	for _, e := range exts {
		set.Add(e)
	}
	return set
}

func (s ExtensionSet) Add(ext string) {
	s[normalizeExt(ext)] = struct{}{}
}

// Matches reports whether path's extension is a member of the set. An empty
// set matches everything (the "accept all" case from §4.2).
func (s ExtensionSet) Matches(path string) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[extOf(path)]
	return ok
}

func extOf(path string) string {
	i := len(path) - 1
	for i >= 0 && path[i] != '.' && path[i] != '/' && path[i] != '\\' {
		i--
	}
	if i < 0 || path[i] != '.' {
		return ""
	}
	return normalizeExt(path[i+1:])
}

func normalizeExt(ext string) string {
	out := make([]byte, 0, len(ext))
	for i := 0; i < len(ext); i++ {
		c := ext[i]
		if c == '.' {
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// ConflictPolicy governs how a destination-name collision is resolved.
type ConflictPolicy string

const (
	ConflictOverwrite ConflictPolicy = "overwrite"
	ConflictSequence  ConflictPolicy = "sequence"
	ConflictSkip      ConflictPolicy = "skip"
)

// ItemStatus is a PlanItem's or a detail row's classification.
type ItemStatus string

const (
	StatusReady     ItemStatus = "ready"
	StatusSkipped   ItemStatus = "skipped"
	StatusSucceeded ItemStatus = "succeeded"
	StatusFailed    ItemStatus = "failed"
)

// PlanItem is the planner's pure output for one source file: a decided
// destination (if any), a status, and — for skipped items — a reason. Extras
// carries operation-specific fields (e.g. compress's effective parameters,
// metadata-strip's found categories) without forcing every operation through
// one bloated struct.
type PlanItem struct {
	Source      FilePath
	Destination FilePath // empty when not applicable
	Status      ItemStatus
	Reason      string
	Extras      map[string]any
}

// DetailRow is one row of an ExecResult's Details list.
type DetailRow struct {
	Source      FilePath
	Destination FilePath
	Status      ItemStatus
	Reason      string
	Extras      map[string]any
}

// PreviewResponse is a façade's preview(request) return shape: the
// planner's output, verbatim, before any mutation (§4.8).
type PreviewResponse struct {
	Items []PlanItem
}

// ExecResult is the aggregated outcome of running an operation's ready
// PlanItems through the executor.
type ExecResult struct {
	Processed int
	Succeeded int
	Failed    int
	Skipped   int
	Canceled  bool
	Details   []DetailRow
}

// ExifDateTime is a naive civil timestamp with 1s resolution, the EXIF
// datetime tags' in-memory representation. Range: 1970-01-01..9999-12-31.
type ExifDateTime struct {
	time.Time
}

const exifLayout = "2006:01:02 15:04:05"

// ParseExifDateTime parses the ASCII `YYYY:MM:DD HH:MM:SS` EXIF form.
func ParseExifDateTime(s string) (ExifDateTime, error) {
	t, err := time.Parse(exifLayout, s)
	if err != nil {
		return ExifDateTime{}, err
	}
	return ExifDateTime{t}, nil
}

// String renders back to the EXIF ASCII form.
func (d ExifDateTime) String() string {
	return d.Time.Format(exifLayout)
}

// InRange reports whether d falls within the EXIF-representable range.
func (d ExifDateTime) InRange() bool {
	return !d.Time.Before(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)) &&
		!d.Time.After(time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC))
}

// Offset returns a new ExifDateTime shifted by delta seconds.
func (d ExifDateTime) Offset(delta int64) ExifDateTime {
	return ExifDateTime{d.Time.Add(time.Duration(delta) * time.Second)}
}

// MetadataCategory is one of the ten EXIF/JPEG metadata groupings the
// metadata-strip operation can target.
type MetadataCategory string

const (
	CategoryGPS              MetadataCategory = "gps"
	CategoryCameraLens       MetadataCategory = "cameraLens"
	CategorySoftware         MetadataCategory = "software"
	CategoryAuthorCopyright  MetadataCategory = "authorCopyright"
	CategoryComments         MetadataCategory = "comments"
	CategoryThumbnail        MetadataCategory = "thumbnail"
	CategoryIPTC             MetadataCategory = "iptc"
	CategoryXMP              MetadataCategory = "xmp"
	CategoryShootingSettings MetadataCategory = "shootingSettings"
	CategoryCaptureDateTime  MetadataCategory = "captureDateTime"
)

// CategorySet is a set of MetadataCategory values, the metadata-strip
// operation's category mask.
type CategorySet map[MetadataCategory]struct{}

func NewCategorySet(cats ...MetadataCategory) CategorySet {
	s := make(CategorySet, len(cats))
	for _, c := range cats {
		s[c] = struct{}{}
	}
	return s
}

func (s CategorySet) Has(c MetadataCategory) bool {
	_, ok := s[c]
	return ok
}

// Add inserts c into the set.
func (s CategorySet) Add(c MetadataCategory) {
	s[c] = struct{}{}
}

// Intersects reports whether s and other share any category.
func (s CategorySet) Intersects(other CategorySet) bool {
	for c := range s {
		if other.Has(c) {
			return true
		}
	}
	return false
}

// ImageExtensions and VideoExtensions are the extension sets the rename
// operation accepts (§6 External Interfaces).
var ImageExtensions = []string{
	"jpg", "jpeg", "png", "webp", "gif", "tif", "tiff", "bmp",
	"heic", "heif", "dng", "cr2", "cr3", "nef", "arw", "raf",
}

var VideoExtensions = []string{
	"mp4", "mov", "m4v", "avi", "mkv", "wmv", "mts", "m2ts", "mpg", "mpeg", "webm",
}

// JpegExtensions is the extension set compress/exifOffset/metadataStrip
// accept.
var JpegExtensions = []string{"jpg", "jpeg"}
