package template

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"xcoll.dev/carrier/container"
)

// maxStoredBlock is the payload limit of one stored deflate block.
const maxStoredBlock = 0xFFFF

// BuildGzip emits a single gzip member whose deflate stream opens with
// one stored (uncompressed) block of exactly capacity bytes: prefix at
// the start, zero padding after. Because the block is stored with its
// length declared up front, any bytes written into it later leave the
// member structurally decodable. The payload follows in further stored
// blocks. CRC32 and ISIZE cover the region's padding, so an overlay
// leaves them stale; decoders report that as a checksum mismatch, not
// a framing error, and the verifier treats it as advisory.
func BuildGzip(capacity int, prefix, payload []byte) (*container.Container, error) {
	if capacity <= 0 || capacity > maxStoredBlock {
		return nil, container.NewError(container.KindFormat, "CARR-TPL-030",
			fmt.Sprintf("reserved capacity %d outside 1..%d", capacity, maxStoredBlock))
	}
	if len(prefix) > capacity {
		return nil, container.NewError(container.KindFormat, "CARR-TPL-001",
			fmt.Sprintf("prefix is %d bytes but reserved capacity is only %d", len(prefix), capacity))
	}

	region := make([]byte, capacity)
	copy(region, prefix)

	// RFC 1952 header: magic, CM=deflate, no flags, MTIME=0, XFL=0,
	// OS=unknown.
	out := []byte{0x1F, 0x8B, 0x08, 0x00, 0, 0, 0, 0, 0x00, 0xFF}

	regionStart := len(out) + 5
	out = appendStoredBlock(out, region, false)
	rest := payload
	for len(rest) > maxStoredBlock {
		out = appendStoredBlock(out, rest[:maxStoredBlock], false)
		rest = rest[maxStoredBlock:]
	}
	out = appendStoredBlock(out, rest, true)

	crc := crc32.NewIEEE()
	crc.Write(region)
	crc.Write(payload)
	out = binary.LittleEndian.AppendUint32(out, crc.Sum32())
	out = binary.LittleEndian.AppendUint32(out, uint32(capacity+len(payload)))

	return container.New(container.FormatGzip, out,
		container.Region{Start: regionStart, Capacity: capacity})
}

// appendStoredBlock writes a BTYPE=00 deflate block. Stored blocks are
// byte-aligned, so the 3 header bits occupy a whole byte here.
func appendStoredBlock(out, data []byte, final bool) []byte {
	hdr := byte(0)
	if final {
		hdr = 1
	}
	out = append(out, hdr)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(data)))
	out = binary.LittleEndian.AppendUint16(out, ^uint16(len(data)))
	return append(out, data...)
}
