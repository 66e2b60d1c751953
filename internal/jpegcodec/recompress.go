package jpegcodec

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"

	"filectl/internal/engineerr"
)

// RecompressOptions controls the pixel re-encode path used by the compress
// operation.
type RecompressOptions struct {
	// ResizePercent scales width/height; 100 leaves dimensions unchanged.
	ResizePercent int
	// Quality is the JPEG quality 1..100.
	Quality int
	// PreserveEXIF carries the first APP1/EXIF segment over verbatim (with
	// orientation reset to 1) instead of dropping all app segments.
	PreserveEXIF bool
}

// Recompress decodes raw as a JPEG, resizes by ResizePercent using a
// Lanczos-3 filter (grounded in ellingwood-forge/internal/image-processor.go,
// which resizes with this same disintegration/imaging call), re-encodes at
// Quality, and optionally carries the original EXIF segment over with its
// orientation tag reset to 1.
func Recompress(raw []byte, opts RecompressOptions) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, engineerr.Wrap(engineerr.Codec, "jpegcodec.Recompress", err, "decode JPEG")
	}

	resized := img
	if opts.ResizePercent > 0 && opts.ResizePercent != 100 {
		b := img.Bounds()
		w := b.Dx() * opts.ResizePercent / 100
		h := b.Dy() * opts.ResizePercent / 100
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		resized = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, resized, &jpeg.Options{Quality: quality}); err != nil {
		return nil, engineerr.Wrap(engineerr.Codec, "jpegcodec.Recompress", err, "encode JPEG")
	}

	if !opts.PreserveEXIF {
		return out.Bytes(), nil
	}

	srcStream, err := Parse(raw)
	if err != nil {
		return out.Bytes(), nil // source app1 unreadable; fall back to a clean re-encode
	}
	app1, ok := srcStream.First(APP1)
	if !ok || !IsEXIF(app1.Data) {
		return out.Bytes(), nil
	}

	dstStream, err := Parse(out.Bytes())
	if err != nil {
		return out.Bytes(), nil
	}
	carried := resetOrientation(app1.Data)
	insertAppAfterSOI(dstStream, Segment{Marker: APP1, Data: carried})
	return dstStream.Emit(), nil
}

// insertAppAfterSOI inserts seg immediately after the stream's SOI marker,
// the conventional position for a carried-over APP1 segment.
func insertAppAfterSOI(s *Stream, seg Segment) {
	out := make([]Segment, 0, len(s.Segments)+1)
	for i, existing := range s.Segments {
		out = append(out, existing)
		if i == 0 && existing.Marker == SOI {
			out = append(out, seg)
		}
	}
	s.Segments = out
}

// DecodeBounds returns the pixel dimensions of a JPEG without a full decode,
// used by the compress planner's target-size estimator to avoid decoding
// every candidate file twice.
func DecodeBounds(raw []byte) (image.Rectangle, error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return image.Rectangle{}, engineerr.Wrap(engineerr.Codec, "jpegcodec.DecodeBounds", err, "decode JPEG header")
	}
	return image.Rect(0, 0, cfg.Width, cfg.Height), nil
}
