package jpegcodec

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func sampleJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode sample jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestParseEmit_RoundTrip(t *testing.T) {
	raw := sampleJPEG(t, 64, 48)

	s, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(s.Segments) < 3 {
		t.Fatalf("expected at least SOI/.../EOI, got %d segments", len(s.Segments))
	}
	if s.Segments[0].Marker != SOI {
		t.Fatalf("first segment = %v, want SOI", s.Segments[0].Marker)
	}
	if s.Segments[len(s.Segments)-1].Marker != EOI {
		t.Fatalf("last segment = %v, want EOI", s.Segments[len(s.Segments)-1].Marker)
	}

	out := s.Emit()
	if !bytes.Equal(out, raw) {
		t.Fatalf("Emit() did not reproduce the original byte stream (len %d vs %d)", len(out), len(raw))
	}
}

func TestRemoveMatching_StripsAppSegment(t *testing.T) {
	raw := sampleJPEG(t, 32, 32)
	s, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	insertAppAfterSOI(s, Segment{Marker: APP1, Data: append([]byte("Exif\x00\x00"), make([]byte, 8)...)})

	removed := s.RemoveMatching(func(seg Segment) bool { return seg.Marker == APP1 })
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, ok := s.First(APP1); ok {
		t.Fatalf("APP1 segment still present after removal")
	}
}

func TestIsXMP_IsEXIF_IsPhotoshopIRB(t *testing.T) {
	exifPayload := append([]byte("Exif\x00\x00"), []byte("II*\x00")...)
	if !IsEXIF(exifPayload) {
		t.Fatalf("expected IsEXIF true")
	}
	if IsXMP(exifPayload) {
		t.Fatalf("expected IsXMP false for EXIF payload")
	}

	xmpPayload := append([]byte("http://ns.adobe.com/xap/1.0/\x00"), []byte("<x:xmpmeta/>")...)
	if !IsXMP(xmpPayload) {
		t.Fatalf("expected IsXMP true")
	}

	irb := append([]byte("Photoshop 3.0\x00"), make([]byte, 4)...)
	if !IsPhotoshopIRB(irb) {
		t.Fatalf("expected IsPhotoshopIRB true")
	}
}

func TestRecompress_ResizesAndReencodesLossily(t *testing.T) {
	raw := sampleJPEG(t, 200, 100)

	out, err := Recompress(raw, RecompressOptions{ResizePercent: 50, Quality: 70})
	if err != nil {
		t.Fatalf("Recompress: %v", err)
	}

	bounds, err := DecodeBounds(out)
	if err != nil {
		t.Fatalf("DecodeBounds: %v", err)
	}
	if bounds.Dx() != 100 || bounds.Dy() != 50 {
		t.Fatalf("resized bounds = %v, want 100x50", bounds)
	}
}

func TestDecodeBounds(t *testing.T) {
	raw := sampleJPEG(t, 123, 77)
	bounds, err := DecodeBounds(raw)
	if err != nil {
		t.Fatalf("DecodeBounds: %v", err)
	}
	if bounds.Dx() != 123 || bounds.Dy() != 77 {
		t.Fatalf("bounds = %v, want 123x77", bounds)
	}
}
