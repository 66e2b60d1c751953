// Package exifengine reads and rewrites EXIF/TIFF metadata embedded in a
// JPEG's APP1 segment.
//
// The read path (datetime lookup, used by preview and by the exif-offset
// operation's "no datetime tag found" diagnostic) is grounded in
// ankit-chaubey-media-metadata-surgery/core/image/image.go, which decodes
// an embedded EXIF block with github.com/rwcarlsen/goexif/exif rather than
// hand-rolling a TIFF reader, since goexif already does the tag dictionary
// work correctly and is read-only by design.
//
// The write/splice path (datetime rewrite, category strip) has no
// equivalent library in the retrieved pack — goexif does not write, and no
// other dependency performs in-place TIFF/IFD mutation — so it is hand
// built in tiff.go, grounded in jrm-1535-jpeg/exif.go's IFD walk and
// tajtiattila-metadata/jpeg-driver.go's APP1 segment handling.
package exifengine

import (
	"bytes"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"

	"filectl/internal/engineerr"
	"filectl/internal/jpegcodec"
	"filectl/internal/model"
)

// exifHeaderPrefix is the "Exif\0\0" marker preceding the TIFF block inside
// an APP1 segment.
var exifHeaderPrefix = []byte("Exif\x00\x00")

// DateTimeField identifies which of the three EXIF datetime tags a value
// came from.
type DateTimeField string

const (
	FieldDateTimeOriginal  DateTimeField = "DateTimeOriginal"
	FieldDateTimeDigitized DateTimeField = "DateTimeDigitized"
	FieldDateTime          DateTimeField = "DateTime"
)

const (
	tagDateTimeOriginal  = 0x9003
	tagDateTimeDigitized = 0x9004
	tagDateTime          = 0x0132
)

var datetimeTagsByField = map[DateTimeField]uint16{
	FieldDateTimeOriginal:  tagDateTimeOriginal,
	FieldDateTimeDigitized: tagDateTimeDigitized,
	FieldDateTime:          tagDateTime,
}

// asciiDateTimeLen is the fixed on-disk length of an EXIF ASCII datetime
// value: "YYYY:MM:DD HH:MM:SS" plus a NUL terminator.
const asciiDateTimeLen = 20

// findAPP1EXIF returns the raw "Exif\0\0"-prefixed APP1 payload, if any.
func findAPP1EXIF(raw []byte) ([]byte, bool, error) {
	stream, err := jpegcodec.Parse(raw)
	if err != nil {
		return nil, false, err
	}
	seg, ok := stream.First(jpegcodec.APP1)
	if !ok || !jpegcodec.IsEXIF(seg.Data) {
		return nil, false, nil
	}
	return seg.Data, true, nil
}

// ReadDateTimes decodes the three standard EXIF datetime tags using
// goexif, returning only the ones actually present.
func ReadDateTimes(raw []byte) (map[DateTimeField]model.ExifDateTime, error) {
	x, err := goexif.Decode(bytes.NewReader(raw))
	if err != nil {
		// No EXIF block at all is not an engine failure; callers treat an
		// empty result as "no datetime tag found".
		return map[DateTimeField]model.ExifDateTime{}, nil
	}

	out := make(map[DateTimeField]model.ExifDateTime, 3)
	for field := range datetimeTagsByField {
		tagName := string(field)
		tag, err := x.Get(goexif.FieldName(tagName))
		if err != nil {
			continue
		}
		s, err := tag.StringVal()
		if err != nil {
			continue
		}
		dt, err := model.ParseExifDateTime(s)
		if err != nil {
			continue
		}
		out[field] = dt
	}
	return out, nil
}

// OffsetDateTimes rewrites every present EXIF datetime tag by delta and
// returns the new JPEG bytes plus the set of fields that were actually
// changed. Because ASCII datetime values are always exactly 20 bytes, the
// TIFF structure's shape never changes: only the 20-byte value payload for
// each affected tag is replaced, so no IFD offset in the file needs to
// move.
func OffsetDateTimes(raw []byte, delta time.Duration) ([]byte, []DateTimeField, error) {
	app1, ok, err := findAPP1EXIF(raw)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return raw, nil, nil
	}

	tiffData := app1[len(exifHeaderPrefix):]
	h, err := parseTIFF(tiffData)
	if err != nil {
		return nil, nil, err
	}

	var changed []DateTimeField
	patch := func(entries []entry, field DateTimeField, tag uint16) []entry {
		for i, e := range entries {
			if e.Tag != tag || e.Type != 2 || int(e.Count) != asciiDateTimeLen {
				continue
			}
			cur, perr := model.ParseExifDateTime(string(bytes.TrimRight(e.Value, "\x00")))
			if perr != nil {
				continue
			}
			shifted := cur.Offset(int64(delta / time.Second))
			entries[i].Value = []byte(shifted.String() + "\x00")
			changed = append(changed, field)
		}
		return entries
	}

	h.IFD0.Entries = patch(h.IFD0.Entries, FieldDateTime, tagDateTime)
	if h.HasExif {
		h.ExifIFD.Entries = patch(h.ExifIFD.Entries, FieldDateTimeOriginal, tagDateTimeOriginal)
		h.ExifIFD.Entries = patch(h.ExifIFD.Entries, FieldDateTimeDigitized, tagDateTimeDigitized)
	}

	if len(changed) == 0 {
		return raw, nil, nil
	}

	newTIFF, err := buildTIFF(h)
	if err != nil {
		return nil, nil, err
	}
	out, err := spliceAPP1(raw, newTIFF)
	if err != nil {
		return nil, nil, err
	}
	return out, changed, nil
}

// spliceAPP1 replaces the stream's first EXIF APP1 segment's TIFF payload
// with newTIFF (re-prefixed with "Exif\0\0") and re-emits the JPEG. Returns
// engineerr.Codec if the resulting segment would exceed the JPEG
// length-prefix limit.
func spliceAPP1(raw []byte, newTIFF []byte) ([]byte, error) {
	stream, err := jpegcodec.Parse(raw)
	if err != nil {
		return nil, err
	}
	payload := append(append([]byte{}, exifHeaderPrefix...), newTIFF...)
	if len(payload) > jpegcodec.MaxSegmentPayload {
		return nil, engineerr.Newf(engineerr.Codec, "exifengine.spliceAPP1",
			"rewritten EXIF block is %d bytes, exceeds the %d-byte JPEG segment limit", len(payload), jpegcodec.MaxSegmentPayload)
	}
	if !stream.ReplaceFirst(jpegcodec.APP1, payload) {
		return nil, engineerr.Newf(engineerr.Codec, "exifengine.spliceAPP1", "no APP1/EXIF segment to replace")
	}
	return stream.Emit(), nil
}

// MetadataCategoryTags enumerates the IFD0/ExifIFD/GPSIFD tag IDs that
// belong to each stripable category, per the category mapping finalized in
// SPEC_FULL.md §9 against goexif's tag table.
var metadataCategoryTags = map[model.MetadataCategory][]uint16{
	model.CategoryGPS: {
		// Membership is structural for GPS: the entire GPSIFD, reached via
		// this pointer tag in IFD0, is dropped as a unit.
		tagGPSIFDPointer,
	},
	model.CategoryCameraLens: {
		0xA433, // LensMake
		0xA434, // LensModel
		0xA432, // LensSpecification
		0xA431, // BodySerialNumber
		0xA435, // LensSerialNumber
		0x010F, // Make
		0x0110, // Model
	},
	model.CategorySoftware: {
		0x0131, // Software
		0x000B, // ProcessingSoftware
		0x013C, // HostComputer
	},
	model.CategoryAuthorCopyright: {
		0x013B, // Artist
		0x8298, // Copyright
		0xA430, // CameraOwnerName
	},
	model.CategoryComments: {
		0x9286, // UserComment
		0x010E, // ImageDescription
		0x9C9B, // XPTitle
		0x9C9C, // XPComment
		0x9C9D, // XPAuthor
		0x9C9E, // XPKeywords
		0x9C9F, // XPSubject
	},
	model.CategoryThumbnail: {
		tagThumbOffset,
		tagThumbLength,
	},
	model.CategoryShootingSettings: {
		0x829A, // ExposureTime
		0x829D, // FNumber
		0x8822, // ExposureProgram
		0x8827, // ISOSpeedRatings
		0x9201, // ShutterSpeedValue
		0x9202, // ApertureValue
		0x9204, // ExposureBiasValue
		0x9205, // MaxApertureValue
		0x9206, // SubjectDistance
		0x9207, // MeteringMode
		0x9208, // LightSource
		0x9209, // Flash
		0x920A, // FocalLength
		0xA402, // ExposureMode
		0xA403, // WhiteBalance
		0xA404, // DigitalZoomRatio
		0xA405, // FocalLengthIn35mmFilm
		0xA406, // SceneCaptureType
		0xA408, // Contrast
		0xA409, // Saturation
		0xA40A, // Sharpness
	},
	model.CategoryCaptureDateTime: {
		tagDateTimeOriginal,
		tagDateTimeDigitized,
		tagDateTime,
		0x9290, // SubSecTime
		0x9291, // SubSecTimeOriginal
		0x9292, // SubSecTimeDigitized
	},
}

// DetectCategories reports which metadata categories are actually present
// in raw's EXIF block (IPTC/XMP live in separate JPEG segments and are
// detected independently of the TIFF walk).
func DetectCategories(raw []byte) (model.CategorySet, error) {
	found := model.NewCategorySet()

	stream, err := jpegcodec.Parse(raw)
	if err != nil {
		return found, err
	}
	for _, seg := range stream.Segments {
		if seg.Marker == jpegcodec.APP1 && jpegcodec.IsXMP(seg.Data) {
			found.Add(model.CategoryXMP)
		}
		if seg.Marker == jpegcodec.APP13 && jpegcodec.IsPhotoshopIRB(seg.Data) {
			found.Add(model.CategoryIPTC)
		}
	}

	app1, ok, err := findAPP1EXIF(raw)
	if err != nil || !ok {
		return found, err
	}
	h, err := parseTIFF(app1[len(exifHeaderPrefix):])
	if err != nil {
		return found, err
	}

	all := append(append([]entry{}, h.IFD0.Entries...), h.ExifIFD.Entries...)
	present := make(map[uint16]struct{}, len(all))
	for _, e := range all {
		present[e.Tag] = struct{}{}
	}
	if h.HasGPS {
		present[tagGPSIFDPointer] = struct{}{}
	}
	if h.HasIFD1 && len(h.Thumbnail) > 0 {
		present[tagThumbOffset] = struct{}{}
	}

	for cat, tags := range metadataCategoryTags {
		for _, t := range tags {
			if _, ok := present[t]; ok {
				found.Add(cat)
				break
			}
		}
	}
	return found, nil
}

// StripCategories removes every tag belonging to a category in mask from
// raw's EXIF block, rebuilding the TIFF structure (and, for
// CategoryThumbnail, dropping IFD1 and the thumbnail blob entirely). It
// returns the unmodified bytes and changed=false if mask has no
// intersection with what DetectCategories finds.
func StripCategories(raw []byte, mask model.CategorySet) ([]byte, bool, error) {
	app1, ok, err := findAPP1EXIF(raw)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return raw, false, nil
	}

	h, err := parseTIFF(app1[len(exifHeaderPrefix):])
	if err != nil {
		return nil, false, err
	}

	drop := make(map[uint16]struct{})
	dropGPS := mask.Has(model.CategoryGPS)
	dropThumb := mask.Has(model.CategoryThumbnail)
	for cat, tags := range metadataCategoryTags {
		if !mask.Has(cat) {
			continue
		}
		for _, t := range tags {
			drop[t] = struct{}{}
		}
	}

	changed := false

	before := len(h.IFD0.Entries)
	h.IFD0.Entries = filterEntries(h.IFD0.Entries, drop)
	if len(h.IFD0.Entries) != before {
		changed = true
	}
	if dropGPS && h.HasGPS {
		h.HasGPS = false
		h.GPSIFD = ifd{}
		changed = true
	}
	if h.HasExif {
		before = len(h.ExifIFD.Entries)
		h.ExifIFD.Entries = filterEntries(h.ExifIFD.Entries, drop)
		if len(h.ExifIFD.Entries) != before {
			changed = true
		}
	}
	if dropThumb && h.HasIFD1 {
		h.HasIFD1 = false
		h.IFD1 = ifd{}
		h.Thumbnail = nil
		changed = true
	}

	var strippedOtherSegments bool
	stream, err := jpegcodec.Parse(raw)
	if err != nil {
		return nil, false, err
	}
	if mask.Has(model.CategoryXMP) {
		if n := stream.RemoveMatching(func(s jpegcodec.Segment) bool {
			return s.Marker == jpegcodec.APP1 && jpegcodec.IsXMP(s.Data)
		}); n > 0 {
			strippedOtherSegments = true
		}
	}
	if mask.Has(model.CategoryIPTC) {
		if n := stream.RemoveMatching(func(s jpegcodec.Segment) bool {
			return s.Marker == jpegcodec.APP13 && jpegcodec.IsPhotoshopIRB(s.Data)
		}); n > 0 {
			strippedOtherSegments = true
		}
	}

	if !changed && !strippedOtherSegments {
		return raw, false, nil
	}

	if changed {
		newTIFF, err := buildTIFF(h)
		if err != nil {
			return nil, false, err
		}
		payload := append(append([]byte{}, exifHeaderPrefix...), newTIFF...)
		if len(payload) > jpegcodec.MaxSegmentPayload {
			return nil, false, engineerr.Newf(engineerr.Codec, "exifengine.StripCategories",
				"rewritten EXIF block is %d bytes, exceeds the %d-byte JPEG segment limit", len(payload), jpegcodec.MaxSegmentPayload)
		}
		if len(h.IFD0.Entries) == 0 && !h.HasExif && !h.HasGPS && !h.HasIFD1 {
			stream.RemoveMatching(func(s jpegcodec.Segment) bool { return s.Marker == jpegcodec.APP1 && jpegcodec.IsEXIF(s.Data) })
		} else {
			stream.ReplaceFirst(jpegcodec.APP1, payload)
		}
	}

	return stream.Emit(), true, nil
}

// ErrNoDateTimeTag formats the diagnostic message used when an
// exif-offset request targets a file with none of the three datetime tags.
func ErrNoDateTimeTag(path string) error {
	return engineerr.Newf(engineerr.Planner, "exifengine", "%s: no EXIF datetime tag present", path)
}
