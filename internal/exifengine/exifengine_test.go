package exifengine

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"filectl/internal/jpegcodec"
	"filectl/internal/model"
)

// buildMinimalTIFF constructs a tiny little-endian TIFF block with IFD0
// holding a DateTime (0x0132) tag and an ExifIFD (via the 0x8769 pointer)
// holding DateTimeOriginal (0x9003) and DateTimeDigitized (0x9004), each a
// fixed 20-byte ASCII value.
func buildMinimalTIFF(t *testing.T, dateTime, original, digitized string) []byte {
	t.Helper()
	order := binary.LittleEndian
	asciiVal := func(s string) []byte {
		v := make([]byte, asciiDateTimeLen)
		copy(v, s+"\x00")
		return v
	}

	// Layout: header(8) | IFD0 (2 entries: DateTime, ExifIFDPointer) |
	// ExifIFD (2 entries: DateTimeOriginal, DateTimeDigitized) | overflow.
	ifd0Off := uint32(8)
	ifd0Size := 2 + 2*12 + 4
	exifOff := ifd0Off + uint32(ifd0Size)
	exifSize := 2 + 2*12 + 4
	overflowStart := exifOff + uint32(exifSize)

	buf := new(bytes.Buffer)
	buf.WriteString("II")
	writeU16(buf, order, 42)
	writeU32(buf, order, ifd0Off)

	writeU16(buf, order, 2)
	// DateTime (ASCII, count 20, stored by offset since 20 > 4)
	writeU16(buf, order, tagDateTime)
	writeU16(buf, order, 2)
	writeU32(buf, order, asciiDateTimeLen)
	writeU32(buf, order, overflowStart)
	// ExifIFDPointer (LONG, count 1, inline)
	writeU16(buf, order, tagExifIFDPointer)
	writeU16(buf, order, 4)
	writeU32(buf, order, 1)
	writeU32(buf, order, exifOff)
	writeU32(buf, order, 0) // no next IFD

	writeU16(buf, order, 2)
	writeU16(buf, order, tagDateTimeOriginal)
	writeU16(buf, order, 2)
	writeU32(buf, order, asciiDateTimeLen)
	writeU32(buf, order, overflowStart+asciiDateTimeLen)
	writeU16(buf, order, tagDateTimeDigitized)
	writeU16(buf, order, 2)
	writeU32(buf, order, asciiDateTimeLen)
	writeU32(buf, order, overflowStart+2*asciiDateTimeLen)
	writeU32(buf, order, 0)

	buf.Write(asciiVal(dateTime))
	buf.Write(asciiVal(original))
	buf.Write(asciiVal(digitized))

	return buf.Bytes()
}

func writeU16(buf *bytes.Buffer, order binary.ByteOrder, v uint16) {
	var b [2]byte
	order.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, order binary.ByteOrder, v uint32) {
	var b [4]byte
	order.PutUint32(b[:], v)
	buf.Write(b[:])
}

// sampleJPEGWithEXIF builds a real baseline JPEG and splices a synthetic
// EXIF APP1 segment right after SOI.
func sampleJPEGWithEXIF(t *testing.T, tiff []byte) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 60, A: 255})
		}
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 85}); err != nil {
		t.Fatalf("encode sample jpeg: %v", err)
	}

	stream, err := jpegcodec.Parse(out.Bytes())
	if err != nil {
		t.Fatalf("parse sample jpeg: %v", err)
	}

	payload := append(append([]byte{}, exifHeaderPrefix...), tiff...)
	inserted := make([]jpegcodec.Segment, 0, len(stream.Segments)+1)
	for i, seg := range stream.Segments {
		inserted = append(inserted, seg)
		if i == 0 {
			inserted = append(inserted, jpegcodec.Segment{Marker: jpegcodec.APP1, Data: payload})
		}
	}
	stream.Segments = inserted
	return stream.Emit()
}

func TestReadDateTimes(t *testing.T) {
	tiff := buildMinimalTIFF(t, "2020:01:02 03:04:05", "2020:01:02 03:04:06", "2020:01:02 03:04:07")
	raw := sampleJPEGWithEXIF(t, tiff)

	got, err := ReadDateTimes(raw)
	if err != nil {
		t.Fatalf("ReadDateTimes: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d datetime fields, want 3: %+v", len(got), got)
	}
	if got[FieldDateTime].String() != "2020:01:02 03:04:05" {
		t.Errorf("DateTime = %s", got[FieldDateTime].String())
	}
	if got[FieldDateTimeOriginal].String() != "2020:01:02 03:04:06" {
		t.Errorf("DateTimeOriginal = %s", got[FieldDateTimeOriginal].String())
	}
}

func TestOffsetDateTimes_ShiftsAllPresentTags(t *testing.T) {
	tiff := buildMinimalTIFF(t, "2020:01:02 03:04:05", "2020:01:02 03:04:05", "2020:01:02 03:04:05")
	raw := sampleJPEGWithEXIF(t, tiff)

	out, changed, err := OffsetDateTimes(raw, time.Hour)
	if err != nil {
		t.Fatalf("OffsetDateTimes: %v", err)
	}
	if len(changed) != 3 {
		t.Fatalf("changed = %v, want 3 fields", changed)
	}

	got, err := ReadDateTimes(out)
	if err != nil {
		t.Fatalf("ReadDateTimes after offset: %v", err)
	}
	if got[FieldDateTime].String() != "2020:01:02 04:04:05" {
		t.Errorf("DateTime after +1h = %s, want 2020:01:02 04:04:05", got[FieldDateTime].String())
	}
}

func TestOffsetDateTimes_NoEXIF_ReturnsUnchanged(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, changed, err := OffsetDateTimes(out.Bytes(), time.Hour)
	if err != nil {
		t.Fatalf("OffsetDateTimes: %v", err)
	}
	if changed != nil {
		t.Fatalf("changed = %v, want nil", changed)
	}
	if !bytes.Equal(got, out.Bytes()) {
		t.Fatalf("expected byte-identical passthrough when there is no EXIF block")
	}
}

func TestDetectCategories_FindsCaptureDateTime(t *testing.T) {
	tiff := buildMinimalTIFF(t, "2020:01:02 03:04:05", "2020:01:02 03:04:05", "2020:01:02 03:04:05")
	raw := sampleJPEGWithEXIF(t, tiff)

	found, err := DetectCategories(raw)
	if err != nil {
		t.Fatalf("DetectCategories: %v", err)
	}
	if !found.Has(model.CategoryCaptureDateTime) {
		t.Fatalf("expected CategoryCaptureDateTime in %+v", found)
	}
}

func TestStripCategories_RemovesCaptureDateTime(t *testing.T) {
	tiff := buildMinimalTIFF(t, "2020:01:02 03:04:05", "2020:01:02 03:04:05", "2020:01:02 03:04:05")
	raw := sampleJPEGWithEXIF(t, tiff)

	mask := model.NewCategorySet(model.CategoryCaptureDateTime)
	out, changed, err := StripCategories(raw, mask)
	if err != nil {
		t.Fatalf("StripCategories: %v", err)
	}
	if !changed {
		t.Fatalf("expected changed=true")
	}

	found, err := DetectCategories(out)
	if err != nil {
		t.Fatalf("DetectCategories after strip: %v", err)
	}
	if found.Has(model.CategoryCaptureDateTime) {
		t.Fatalf("CategoryCaptureDateTime still present after strip: %+v", found)
	}
}

func TestStripCategories_NoMatchingCategory_ReturnsUnchanged(t *testing.T) {
	tiff := buildMinimalTIFF(t, "2020:01:02 03:04:05", "2020:01:02 03:04:05", "2020:01:02 03:04:05")
	raw := sampleJPEGWithEXIF(t, tiff)

	out, changed, err := StripCategories(raw, model.NewCategorySet(model.CategoryGPS))
	if err != nil {
		t.Fatalf("StripCategories: %v", err)
	}
	if changed {
		t.Fatalf("expected changed=false when the mask does not intersect present categories")
	}
	if !bytes.Equal(out, raw) {
		t.Fatalf("expected byte-identical passthrough")
	}
}
