package locator

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"xcoll.dev/carrier/container"
)

const tagOctetString = 0x04

// LocateTLV scans data for the literal DER bytes of an object identifier and
// decodes the TLV that immediately follows it. The value of that TLV is the
// reserved region: its offset is the first byte after the length field and
// its capacity is the decoded length.
//
// Length decoding supports the short form and long forms of one or two
// length bytes; anything else fails with CARR-FMT-012.
func LocateTLV(data, oid []byte, tag byte) (container.Region, error) {
	i := bytes.Index(data, oid)
	if i < 0 {
		return container.Region{}, container.NewError(container.KindFormat,
			"CARR-FMT-010", "object identifier pattern not found in carrier")
	}
	j := i + len(oid)
	if j >= len(data) {
		return container.Region{}, container.OffsetError(container.KindFormat,
			"CARR-FMT-013", j, "carrier truncated after object identifier")
	}
	if data[j] != tag {
		return container.Region{}, container.OffsetError(container.KindFormat,
			"CARR-FMT-011", j,
			fmt.Sprintf("tag mismatch after object identifier: expected 0x%02x, found 0x%02x", tag, data[j]))
	}
	if j+1 >= len(data) {
		return container.Region{}, container.OffsetError(container.KindFormat,
			"CARR-FMT-013", j+1, "carrier truncated inside length field")
	}

	l1 := data[j+1]
	var length, start int
	switch {
	case l1&0x80 == 0:
		length = int(l1)
		start = j + 2
	case l1&0x7F == 1:
		if j+2 >= len(data) {
			return container.Region{}, container.OffsetError(container.KindFormat,
				"CARR-FMT-013", j+2, "carrier truncated inside length field")
		}
		length = int(data[j+2])
		start = j + 3
	case l1&0x7F == 2:
		if j+3 >= len(data) {
			return container.Region{}, container.OffsetError(container.KindFormat,
				"CARR-FMT-013", j+3, "carrier truncated inside length field")
		}
		length = int(data[j+2])<<8 | int(data[j+3])
		start = j + 4
	default:
		return container.Region{}, container.OffsetError(container.KindFormat,
			"CARR-FMT-012", j+1,
			fmt.Sprintf("unsupported length form 0x%02x (only short form and 1-2 long-form bytes)", l1))
	}

	if start+length > len(data) {
		return container.Region{}, container.OffsetError(container.KindFormat,
			"CARR-FMT-014", start+length, "declared TLV length exceeds carrier")
	}
	return container.Region{Start: start, Capacity: length}, nil
}

// EncodeOID returns the full DER encoding (tag, length, base-128 body) of a
// dotted object identifier such as "1.2.3.4.5.6.7.8".
func EncodeOID(dotted string) ([]byte, error) {
	parts := strings.Split(dotted, ".")
	if len(parts) < 2 {
		return nil, container.NewError(container.KindFormat,
			"CARR-FMT-015", "object identifier needs at least two arcs")
	}
	arcs := make([]uint64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, container.WrapError(container.KindFormat,
				"CARR-FMT-015", "invalid object identifier arc "+p, err)
		}
		arcs[i] = v
	}
	if arcs[0] > 2 || (arcs[0] < 2 && arcs[1] >= 40) {
		return nil, container.NewError(container.KindFormat,
			"CARR-FMT-015", "invalid leading object identifier arcs")
	}

	var body []byte
	body = appendBase128(body, arcs[0]*40+arcs[1])
	for _, a := range arcs[2:] {
		body = appendBase128(body, a)
	}
	if len(body) > 0x7F {
		// Extension OIDs in this toolkit are short by construction.
		return nil, container.NewError(container.KindFormat,
			"CARR-FMT-015", "object identifier too long for short-form length")
	}
	out := make([]byte, 0, 2+len(body))
	out = append(out, 0x06, byte(len(body)))
	return append(out, body...), nil
}

func appendBase128(dst []byte, v uint64) []byte {
	if v == 0 {
		return append(dst, 0)
	}
	var tmp [10]byte
	n := 0
	for ; v > 0; v >>= 7 {
		tmp[n] = byte(v & 0x7F)
		n++
	}
	for i := n - 1; i >= 0; i-- {
		b := tmp[i]
		if i > 0 {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}
