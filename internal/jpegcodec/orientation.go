package jpegcodec

import "encoding/binary"

// orientationTag is the TIFF Orientation tag ID (EXIF IFD0).
const orientationTag = 0x0112

// resetOrientation returns a copy of an "Exif\0\0"-prefixed APP1 payload
// with the TIFF IFD0 Orientation tag (if present, SHORT, count 1) set to 1
// (normal orientation), since the pixel buffer carrying this segment has
// already been re-oriented by the decode step. Any other structure is left
// untouched; if the tag cannot be located the original bytes are returned
// unchanged.
func resetOrientation(payload []byte) []byte {
	out := append([]byte{}, payload...)
	const tiffStart = 6 // after "Exif\0\0"
	if len(out) < tiffStart+8 {
		return out
	}
	tiff := out[tiffStart:]

	var order binary.ByteOrder
	switch {
	case tiff[0] == 'I' && tiff[1] == 'I':
		order = binary.LittleEndian
	case tiff[0] == 'M' && tiff[1] == 'M':
		order = binary.BigEndian
	default:
		return out
	}

	ifd0Offset := order.Uint32(tiff[4:8])
	if int(ifd0Offset)+2 > len(tiff) {
		return out
	}
	count := order.Uint16(tiff[ifd0Offset : ifd0Offset+2])
	entriesStart := int(ifd0Offset) + 2

	for i := 0; i < int(count); i++ {
		entryOff := entriesStart + i*12
		if entryOff+12 > len(tiff) {
			return out
		}
		tag := order.Uint16(tiff[entryOff : entryOff+2])
		if tag != orientationTag {
			continue
		}
		typ := order.Uint16(tiff[entryOff+2 : entryOff+4])
		cnt := order.Uint32(tiff[entryOff+4 : entryOff+8])
		if typ != 3 || cnt != 1 { // SHORT, single value
			return out
		}
		order.PutUint16(tiff[entryOff+8:entryOff+10], 1)
		return out
	}
	return out
}
