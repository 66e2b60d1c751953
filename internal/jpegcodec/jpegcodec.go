// Package jpegcodec parses and re-emits the JPEG marker-segment stream
// without touching entropy-coded scan data unless a full pixel decode is
// requested.
//
// The marker-scan loop (walking FFxx markers, treating RST markers inside
// scan data as part of the entropy stream rather than a segment boundary)
// is grounded in robpike-scrub/scrub.go's Scanner and in
// ostafen-digler/internal/format/jpeg.go's ScanJPEG — both hand-rolled
// segment scanners, since no dependency in the retrieved pack performs
// exact byte-level JPEG segment splicing (every pack dependency that
// touches JPEG metadata either shells out to exiftool or, like goexif, only
// reads).
package jpegcodec

import (
	"bytes"
	"encoding/binary"

	"filectl/internal/engineerr"
)

// Marker is a JPEG marker byte (the byte following 0xFF).
type Marker byte

const (
	markerPrefix byte = 0xFF

	SOI  Marker = 0xD8
	EOI  Marker = 0xD9
	SOS  Marker = 0xDA
	DQT  Marker = 0xDB
	DHT  Marker = 0xC4
	DNL  Marker = 0xDC
	DRI  Marker = 0xDD
	COM  Marker = 0xFE
	APP0 Marker = 0xE0
	APP1 Marker = 0xE1
	APP2 Marker = 0xE2

	APP13 Marker = 0xED // Photoshop IRB / IPTC
)

// IsAPPn reports whether m is one of the sixteen APPn application markers
// (FFE0..FFEF).
func IsAPPn(m Marker) bool { return m >= 0xE0 && m <= 0xEF }

// IsSOFn reports whether m is a start-of-frame marker (baseline/progressive/
// etc.), excluding DHT/JPG/DAC which share the C4/C8/CC-adjacent range.
func IsSOFn(m Marker) bool {
	switch m {
	case 0xC0, 0xC1, 0xC2, 0xC3, 0xC5, 0xC6, 0xC7, 0xC9, 0xCA, 0xCB, 0xCD, 0xCE, 0xCF:
		return true
	default:
		return false
	}
}

func isRST(m Marker) bool { return m >= 0xD0 && m <= 0xD7 }

// isStandalone reports whether a marker carries no length-prefixed payload
// (SOI, EOI, RSTn, and the TEM/fill markers all stand alone in the stream).
func isStandalone(m Marker) bool {
	return m == SOI || m == EOI || isRST(m) || m == 0x01
}

// Segment is one marker segment: its marker byte and payload (excluding the
// two-byte length field itself, for length-prefixed markers). For SOS, Data
// additionally carries the entropy-coded scan bytes that follow the scan
// header, up to (not including) the next real marker; ScanHeaderLen marks
// where the scan header ends and the unframed entropy tail begins within
// Data, since only the header is covered by the segment's length field.
type Segment struct {
	Marker        Marker
	Data          []byte
	ScanHeaderLen int
}

// Stream is the ordered list of segments the codec works on: model.JpegStream
// materialized as a parsed, editable value.
type Stream struct {
	Segments []Segment
}

// Parse scans raw into a Stream without decoding entropy data.
func Parse(raw []byte) (*Stream, error) {
	if len(raw) < 4 || raw[0] != markerPrefix || Marker(raw[1]) != SOI {
		return nil, engineerr.Newf(engineerr.Codec, "jpegcodec.Parse", "not a JPEG: missing SOI")
	}

	s := &Stream{}
	s.Segments = append(s.Segments, Segment{Marker: SOI})

	i := 2
	for i < len(raw) {
		if raw[i] != markerPrefix {
			return nil, engineerr.Newf(engineerr.Codec, "jpegcodec.Parse", "expected marker at offset %d", i)
		}
		// Skip fill bytes (0xFF padding before the real marker byte).
		j := i + 1
		for j < len(raw) && raw[j] == markerPrefix {
			j++
		}
		if j >= len(raw) {
			return nil, engineerr.Newf(engineerr.Codec, "jpegcodec.Parse", "truncated stream at offset %d", i)
		}
		m := Marker(raw[j])
		i = j + 1

		if m == EOI {
			s.Segments = append(s.Segments, Segment{Marker: EOI})
			break
		}
		if isStandalone(m) {
			s.Segments = append(s.Segments, Segment{Marker: m})
			continue
		}

		if i+2 > len(raw) {
			return nil, engineerr.Newf(engineerr.Codec, "jpegcodec.Parse", "truncated segment length at offset %d", i)
		}
		length := int(binary.BigEndian.Uint16(raw[i : i+2]))
		if length < 2 || i+length > len(raw) {
			return nil, engineerr.Newf(engineerr.Codec, "jpegcodec.Parse", "invalid segment length at offset %d", i)
		}
		payload := raw[i+2 : i+length]
		i += length

		if m == SOS {
			scanStart := i
			end, nextIdx, err := scanEntropyData(raw, scanStart)
			if err != nil {
				return nil, err
			}
			full := append(append([]byte{}, payload...), raw[scanStart:end]...)
			s.Segments = append(s.Segments, Segment{Marker: SOS, Data: full, ScanHeaderLen: len(payload)})
			i = nextIdx
			continue
		}

		s.Segments = append(s.Segments, Segment{Marker: m, Data: payload})
	}

	return s, nil
}

// scanEntropyData walks entropy-coded bytes starting at start, returning the
// exclusive end of the scan data and the index of the next real marker.
// RST markers (FFD0..FFD7) and stuffed FF00 bytes are part of the entropy
// stream, not segment boundaries.
func scanEntropyData(raw []byte, start int) (end int, next int, err error) {
	i := start
	for i < len(raw) {
		if raw[i] != markerPrefix {
			i++
			continue
		}
		if i+1 >= len(raw) {
			return 0, 0, engineerr.Newf(engineerr.Codec, "jpegcodec.scanEntropyData", "truncated entropy stream")
		}
		nextMarker := Marker(raw[i+1])
		if nextMarker == 0x00 || isRST(nextMarker) {
			i += 2
			continue
		}
		if raw[i+1] == markerPrefix {
			// Fill byte sequence; keep scanning.
			i++
			continue
		}
		// Real marker: scan data ends here.
		return i, i, nil
	}
	return 0, 0, engineerr.Newf(engineerr.Codec, "jpegcodec.scanEntropyData", "scan data runs past end of stream")
}

// Emit reserializes s back into bytes, preserving segment order.
func (s *Stream) Emit() []byte {
	var buf bytes.Buffer
	for _, seg := range s.Segments {
		buf.WriteByte(markerPrefix)
		buf.WriteByte(byte(seg.Marker))
		if isStandalone(seg.Marker) {
			continue
		}
		if seg.Marker == SOS {
			header := seg.Data[:seg.ScanHeaderLen]
			entropy := seg.Data[seg.ScanHeaderLen:]
			var lenBytes [2]byte
			binary.BigEndian.PutUint16(lenBytes[:], uint16(len(header)+2))
			buf.Write(lenBytes[:])
			buf.Write(header)
			buf.Write(entropy)
			continue
		}
		length := len(seg.Data) + 2
		var lenBytes [2]byte
		binary.BigEndian.PutUint16(lenBytes[:], uint16(length))
		buf.Write(lenBytes[:])
		buf.Write(seg.Data)
	}
	return buf.Bytes()
}

// First returns the first segment with the given marker, if any.
func (s *Stream) First(m Marker) (Segment, bool) {
	for _, seg := range s.Segments {
		if seg.Marker == m {
			return seg, true
		}
	}
	return Segment{}, false
}

// ReplaceFirst replaces the first segment matching m's data, returning false
// if no such segment exists.
func (s *Stream) ReplaceFirst(m Marker, data []byte) bool {
	for i := range s.Segments {
		if s.Segments[i].Marker == m {
			s.Segments[i].Data = data
			return true
		}
	}
	return false
}

// RemoveMatching removes every segment for which pred returns true.
func (s *Stream) RemoveMatching(pred func(Segment) bool) int {
	out := s.Segments[:0]
	removed := 0
	for _, seg := range s.Segments {
		if pred(seg) {
			removed++
			continue
		}
		out = append(out, seg)
	}
	s.Segments = out
	return removed
}

const (
	// MaxSegmentPayload is the largest payload a length-prefixed segment can
	// carry: the two-byte length field covers its own bytes too, so the
	// usable maximum is 65535-2.
	MaxSegmentPayload = 65533
)

// xmpPrefix is the namespace identifier an XMP-carrying APP1 payload
// begins with. Grounded in tajtiattila-metadata/jpeg-driver.go's
// jpegXMPPfx byte-prefix detection.
var xmpPrefix = []byte("http://ns.adobe.com/xap/1.0/\x00")

// IsXMP reports whether an APP1 payload is an XMP packet rather than EXIF.
func IsXMP(payload []byte) bool {
	return bytes.HasPrefix(payload, xmpPrefix)
}

// exifPrefix is the "Exif\0\0" identifier an EXIF-carrying APP1 payload
// begins with, before the TIFF header.
var exifPrefix = []byte("Exif\x00\x00")

// IsEXIF reports whether an APP1 payload carries an EXIF/TIFF block.
func IsEXIF(payload []byte) bool {
	return bytes.HasPrefix(payload, exifPrefix)
}

// photoshopIRBPrefix identifies an APP13 Photoshop 3.0 IPTC/IRB payload.
var photoshopIRBPrefix = []byte("Photoshop 3.0\x00")

// IsPhotoshopIRB reports whether an APP13 payload is a Photoshop 3.0 IRB
// block (carrying IPTC among other resources).
func IsPhotoshopIRB(payload []byte) bool {
	return bytes.HasPrefix(payload, photoshopIRBPrefix)
}
