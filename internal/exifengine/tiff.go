package exifengine

import (
	"bytes"
	"encoding/binary"

	"filectl/internal/engineerr"
)

// tiffTypeSize is the byte width of one value of a TIFF field type.
var tiffTypeSize = map[uint16]int{
	1:  1, // BYTE
	2:  1, // ASCII
	3:  2, // SHORT
	4:  4, // LONG
	5:  8, // RATIONAL
	6:  1, // SBYTE
	7:  1, // UNDEFINED
	8:  2, // SSHORT
	9:  4, // SLONG
	10: 8, // SRATIONAL
	11: 4, // FLOAT
	12: 8, // DOUBLE
}

func typeSize(t uint16) int {
	if sz, ok := tiffTypeSize[t]; ok {
		return sz
	}
	return 1
}

// entry is one fully-resolved TIFF/EXIF IFD entry: its tag, type, count, and
// the raw value bytes (exactly typeSize(Type)*Count long), regardless of
// whether the source file stored them inline or via an offset.
type entry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	Value []byte
}

func (e entry) dataLen() int { return typeSize(e.Type) * int(e.Count) }

// ifd is an ordered list of entries.
type ifd struct {
	Entries []entry
}

// header describes a parsed TIFF block: its byte order and the entries of
// IFD0, ExifIFD, GPSIFD and IFD1 (thumbnail), plus the raw thumbnail bytes
// if IFD1 carries a JPEGInterchangeFormat pointer.
type header struct {
	Order     binary.ByteOrder
	IFD0      ifd
	ExifIFD   ifd
	HasExif   bool
	GPSIFD    ifd
	HasGPS    bool
	IFD1      ifd
	HasIFD1   bool
	Thumbnail []byte
}

const (
	tagExifIFDPointer = 0x8769
	tagGPSIFDPointer  = 0x8825
	tagThumbOffset    = 0x0201
	tagThumbLength    = 0x0202
)

// parseTIFF parses an "Exif\0\0"-stripped TIFF block (i.e. tiffData starts
// at the "II*\0"/"MM\0*" header).
func parseTIFF(tiffData []byte) (*header, error) {
	if len(tiffData) < 8 {
		return nil, engineerr.Newf(engineerr.Codec, "exifengine.parseTIFF", "TIFF block too short")
	}

	var order binary.ByteOrder
	switch {
	case tiffData[0] == 'I' && tiffData[1] == 'I':
		order = binary.LittleEndian
	case tiffData[0] == 'M' && tiffData[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, engineerr.Newf(engineerr.Codec, "exifengine.parseTIFF", "bad byte-order marker")
	}

	h := &header{Order: order}

	ifd0Off := order.Uint32(tiffData[4:8])
	ifd0, next, err := readIFD(tiffData, order, ifd0Off)
	if err != nil {
		return nil, err
	}
	h.IFD0 = ifd0

	for _, e := range ifd0.Entries {
		switch e.Tag {
		case tagExifIFDPointer:
			off := order.Uint32(e.Value)
			exifIFD, _, err := readIFD(tiffData, order, off)
			if err == nil {
				h.ExifIFD = exifIFD
				h.HasExif = true
			}
		case tagGPSIFDPointer:
			off := order.Uint32(e.Value)
			gpsIFD, _, err := readIFD(tiffData, order, off)
			if err == nil {
				h.GPSIFD = gpsIFD
				h.HasGPS = true
			}
		}
	}

	if next != 0 && int(next) < len(tiffData) {
		ifd1, _, err := readIFD(tiffData, order, next)
		if err == nil {
			h.IFD1 = ifd1
			h.HasIFD1 = true
			h.Thumbnail = extractThumbnail(tiffData, order, ifd1)
		}
	}

	return h, nil
}

func extractThumbnail(tiffData []byte, order binary.ByteOrder, dir ifd) []byte {
	var off, length uint32
	haveOff, haveLen := false, false
	for _, e := range dir.Entries {
		switch e.Tag {
		case tagThumbOffset:
			off = order.Uint32(e.Value)
			haveOff = true
		case tagThumbLength:
			length = order.Uint32(e.Value)
			haveLen = true
		}
	}
	if !haveOff || !haveLen {
		return nil
	}
	if int(off)+int(length) > len(tiffData) || length == 0 {
		return nil
	}
	return append([]byte{}, tiffData[off:off+length]...)
}

func readIFD(tiffData []byte, order binary.ByteOrder, off uint32) (ifd, uint32, error) {
	if int(off)+2 > len(tiffData) {
		return ifd{}, 0, engineerr.Newf(engineerr.Codec, "exifengine.readIFD", "IFD offset out of range")
	}
	count := order.Uint16(tiffData[off : off+2])
	entriesStart := int(off) + 2
	var out ifd
	for i := 0; i < int(count); i++ {
		entryOff := entriesStart + i*12
		if entryOff+12 > len(tiffData) {
			return ifd{}, 0, engineerr.Newf(engineerr.Codec, "exifengine.readIFD", "truncated IFD entry")
		}
		tag := order.Uint16(tiffData[entryOff : entryOff+2])
		typ := order.Uint16(tiffData[entryOff+2 : entryOff+4])
		cnt := order.Uint32(tiffData[entryOff+4 : entryOff+8])

		dataLen := typeSize(typ) * int(cnt)
		var value []byte
		if dataLen <= 4 {
			value = append([]byte{}, tiffData[entryOff+8:entryOff+8+dataLen]...)
		} else {
			valOff := order.Uint32(tiffData[entryOff+8 : entryOff+12])
			if int(valOff)+dataLen > len(tiffData) {
				// Corrupt/unsupported pointer; keep a zeroed value rather
				// than failing the whole parse over one odd tag.
				value = make([]byte, dataLen)
			} else {
				value = append([]byte{}, tiffData[valOff:int(valOff)+dataLen]...)
			}
		}
		out.Entries = append(out.Entries, entry{Tag: tag, Type: typ, Count: cnt, Value: value})
	}

	nextOff := entriesStart + int(count)*12
	var next uint32
	if nextOff+4 <= len(tiffData) {
		next = order.Uint32(tiffData[nextOff : nextOff+4])
	}
	return out, next, nil
}

// filterEntries returns a copy of entries excluding any whose Tag is in drop.
func filterEntries(entries []entry, drop map[uint16]struct{}) []entry {
	out := make([]entry, 0, len(entries))
	for _, e := range entries {
		if _, skip := drop[e.Tag]; skip {
			continue
		}
		out = append(out, e)
	}
	return out
}

// buildTIFF reassembles a full TIFF block from h's (possibly filtered) IFDs,
// recomputing every offset from scratch. Table layout: header(8) | IFD0
// table | ExifIFD table | GPSIFD table | IFD1 table | overflow data (each
// table's over-4-byte values, in table order) | thumbnail bytes (last).
func buildTIFF(h *header) ([]byte, error) {
	var orderBytes [2]byte
	if h.Order == binary.LittleEndian {
		orderBytes = [2]byte{'I', 'I'}
	} else {
		orderBytes = [2]byte{'M', 'M'}
	}

	ifd0TableSize := 2 + len(h.IFD0.Entries)*12 + 4
	exifTableSize := 0
	if h.HasExif {
		exifTableSize = 2 + len(h.ExifIFD.Entries)*12 + 4
	}
	gpsTableSize := 0
	if h.HasGPS {
		gpsTableSize = 2 + len(h.GPSIFD.Entries)*12 + 4
	}
	ifd1TableSize := 0
	if h.HasIFD1 {
		ifd1TableSize = 2 + len(h.IFD1.Entries)*12 + 4
	}

	ifd0Off := uint32(8)
	exifOff := ifd0Off + uint32(ifd0TableSize)
	gpsOff := exifOff + uint32(exifTableSize)
	ifd1Off := gpsOff + uint32(gpsTableSize)
	overflowStart := ifd1Off + uint32(ifd1TableSize)

	buf := new(bytes.Buffer)
	buf.Write(orderBytes[:])
	writeUint16(buf, h.Order, 42)
	writeUint32(buf, h.Order, ifd0Off)

	overflow := new(bytes.Buffer)
	cursor := overflowStart

	writeIFDTable := func(dir ifd, nextIFDOffset uint32, thumbOverride uint32, patchThumb bool) {
		writeUint16(buf, h.Order, uint16(len(dir.Entries)))
		for _, e := range dir.Entries {
			writeUint16(buf, h.Order, e.Tag)
			writeUint16(buf, h.Order, e.Type)
			writeUint32(buf, h.Order, e.Count)

			if patchThumb && e.Tag == tagThumbOffset {
				var inline [4]byte
				h.Order.PutUint32(inline[:], thumbOverride)
				buf.Write(inline[:])
				continue
			}

			dataLen := e.dataLen()
			if dataLen <= 4 {
				var inline [4]byte
				copy(inline[:], e.Value)
				buf.Write(inline[:])
			} else {
				writeUint32(buf, h.Order, cursor)
				overflow.Write(e.Value)
				cursor += uint32(len(e.Value))
				if len(e.Value)%2 == 1 {
					overflow.WriteByte(0) // word-align, matches common TIFF writers
					cursor++
				}
			}
		}
		writeUint32(buf, h.Order, nextIFDOffset)
	}

	writeIFDTable(h.IFD0, boolUint32(h.HasIFD1, ifd1Off), 0, false)
	if h.HasExif {
		writeIFDTable(h.ExifIFD, 0, 0, false)
	}
	if h.HasGPS {
		writeIFDTable(h.GPSIFD, 0, 0, false)
	}
	if h.HasIFD1 {
		// The thumbnail bytes are appended last, right after all overflow
		// data, so its absolute offset is overflowStart+overflow.Len() at
		// the moment this table is written (IFD1 is always the final table).
		thumbAbsOffset := overflowStart + uint32(overflow.Len())
		writeIFDTable(h.IFD1, 0, thumbAbsOffset, len(h.Thumbnail) > 0)
	}

	result := buf.Bytes()
	result = append(result, overflow.Bytes()...)
	if h.HasIFD1 && len(h.Thumbnail) > 0 {
		result = append(result, h.Thumbnail...)
	}
	return result, nil
}

func boolUint32(b bool, v uint32) uint32 {
	if b {
		return v
	}
	return 0
}

func writeUint16(buf *bytes.Buffer, order binary.ByteOrder, v uint16) {
	var b [2]byte
	order.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, order binary.ByteOrder, v uint32) {
	var b [4]byte
	order.PutUint32(b[:], v)
	buf.Write(b[:])
}
