package locator

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"xcoll.dev/carrier/container"
)

// gzip header flag bits, RFC 1952 §2.3.1.
const (
	gzipFlagText    = 0x01
	gzipFlagHCRC    = 0x02
	gzipFlagExtra   = 0x04
	gzipFlagName    = 0x08
	gzipFlagComment = 0x10
)

// GzipHeader describes the variable-length member header of a gzip stream.
type GzipHeader struct {
	CompressionMethod byte
	Flags             byte
	MTime             uint32
	ExtraFlags        byte
	OS                byte
	ExtraLen          int
	Name              string
	Comment           string
	// HeaderLen is the total header size including all optional fields;
	// the compressed data begins at this offset.
	HeaderLen int
}

// ParseGzipHeader decodes the fixed 10-byte header and the optional
// extra/name/comment/CRC16 fields selected by the flag byte.
func ParseGzipHeader(data []byte) (GzipHeader, error) {
	var h GzipHeader
	if len(data) < 10 || data[0] != 0x1F || data[1] != 0x8B {
		return h, container.OffsetError(container.KindFormat,
			"CARR-FMT-040", 0, "carrier does not start with the gzip magic")
	}
	h.CompressionMethod = data[2]
	h.Flags = data[3]
	h.MTime = binary.LittleEndian.Uint32(data[4:8])
	h.ExtraFlags = data[8]
	h.OS = data[9]
	if h.Flags&0xE0 != 0 {
		return h, container.OffsetError(container.KindFormat,
			"CARR-FMT-042", 3, fmt.Sprintf("reserved gzip flag bits set: 0x%02x", h.Flags))
	}

	i := 10
	if h.Flags&gzipFlagExtra != 0 {
		if i+2 > len(data) {
			return h, truncatedGzip(i)
		}
		h.ExtraLen = int(binary.LittleEndian.Uint16(data[i : i+2]))
		i += 2 + h.ExtraLen
		if i > len(data) {
			return h, truncatedGzip(i)
		}
	}
	if h.Flags&gzipFlagName != 0 {
		j := bytes.IndexByte(data[i:], 0)
		if j < 0 {
			return h, truncatedGzip(len(data))
		}
		h.Name = string(data[i : i+j])
		i += j + 1
	}
	if h.Flags&gzipFlagComment != 0 {
		j := bytes.IndexByte(data[i:], 0)
		if j < 0 {
			return h, truncatedGzip(len(data))
		}
		h.Comment = string(data[i : i+j])
		i += j + 1
	}
	if h.Flags&gzipFlagHCRC != 0 {
		i += 2
		if i > len(data) {
			return h, truncatedGzip(i)
		}
	}
	h.HeaderLen = i
	return h, nil
}

func truncatedGzip(off int) error {
	return container.OffsetError(container.KindFormat,
		"CARR-FMT-041", off, "gzip member header truncated")
}

// LocateGzip returns the reserved region of a gzip member. When the
// deflate stream opens with a stored (BTYPE=00) block, the region is
// that block's payload, so templates built around a leading stored
// block locate back to exactly the range they reserved. Otherwise the
// insertion point is immediately after the complete member header with
// everything up to end of carrier as capacity.
func LocateGzip(data []byte) (container.Region, error) {
	h, err := ParseGzipHeader(data)
	if err != nil {
		return container.Region{}, err
	}
	start := h.HeaderLen
	if len(data) >= start+5 && data[start]&0x06 == 0 {
		length := int(binary.LittleEndian.Uint16(data[start+1 : start+3]))
		nlen := binary.LittleEndian.Uint16(data[start+3 : start+5])
		if nlen == ^uint16(length) && start+5+length <= len(data) {
			return container.Region{Start: start + 5, Capacity: length}, nil
		}
	}
	return container.Region{Start: start, Capacity: len(data) - start}, nil
}
