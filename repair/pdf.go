package repair

import (
	"bytes"
	"fmt"

	"xcoll.dev/carrier/container"
)

const xrefEntryWidth = 20 // "%010d %05d n \n"

// RepairPDF recomputes the cross-reference table by re-scanning for each
// object's leading "<N> 0 obj" token, then rewrites the startxref value to
// the table's (possibly shifted) position. The rebuilt table must occupy
// exactly the byte length of the original one; entries are fixed-width, so
// any difference is a fatal inconsistency in the template.
//
// Only the old-school single-subsection layout ("xref\n0 N\n" with no
// holes) is supported, which is what the toolkit's builders emit.
func RepairPDF(data []byte) ([]byte, error) {
	tok := []byte("\nxref\n")
	ti := bytes.Index(data, tok)
	if ti < 0 {
		return nil, container.NewError(container.KindRepair,
			"CARR-REP-003", "no xref table found in carrier")
	}
	tableStart := ti + 1 // points at the 'x' of "xref"

	// Parse the subsection header line "0 N".
	hdrStart := tableStart + len("xref\n")
	nl := bytes.IndexByte(data[hdrStart:], '\n')
	if nl < 0 {
		return nil, container.OffsetError(container.KindRepair,
			"CARR-REP-003", hdrStart, "xref subsection header truncated")
	}
	hdrLine := data[hdrStart : hdrStart+nl]
	var first, count int
	if _, err := fmt.Sscanf(string(hdrLine), "%d %d", &first, &count); err != nil {
		return nil, container.OffsetError(container.KindRepair,
			"CARR-REP-003", hdrStart, "malformed xref subsection header "+string(hdrLine))
	}
	if first != 0 || count < 1 {
		return nil, container.OffsetError(container.KindRepair,
			"CARR-REP-006", hdrStart,
			fmt.Sprintf("unsupported xref subsection %d %d (expected a single section from 0)", first, count))
	}

	entriesStart := hdrStart + nl + 1
	tableEnd := entriesStart + count*xrefEntryWidth
	if tableEnd > len(data) {
		return nil, container.OffsetError(container.KindRepair,
			"CARR-REP-003", tableEnd, "xref table extends past end of carrier")
	}
	origLen := tableEnd - tableStart

	var table bytes.Buffer
	table.Write(data[tableStart:entriesStart]) // "xref\n0 N\n" verbatim
	// Entry 0 is the head of the free list; preserve it byte-for-byte.
	table.Write(data[entriesStart : entriesStart+xrefEntryWidth])

	for i := 1; i < count; i++ {
		needle := []byte(fmt.Sprintf("\n%d 0 obj", i))
		oi := bytes.Index(data, needle)
		if oi < 0 {
			return nil, container.NewError(container.KindRepair, "CARR-REP-001",
				fmt.Sprintf("object %d not found while rebuilding xref", i))
		}
		fmt.Fprintf(&table, "%010d %05d n \n", oi+1, 0)
	}

	if table.Len() != origLen {
		return nil, container.NewError(container.KindRepair, "CARR-REP-002",
			fmt.Sprintf("rebuilt xref table is %d bytes, original was %d: entry widths diverged",
				table.Len(), origLen))
	}

	out := make([]byte, 0, len(data))
	out = append(out, data[:tableStart]...)
	out = append(out, table.Bytes()...)
	out = append(out, data[tableEnd:]...)

	// The startxref pointer depends on the table's final position, so it is
	// rewritten strictly after the table splice.
	return rewriteStartxref(out, tableStart)
}

func rewriteStartxref(data []byte, xrefOffset int) ([]byte, error) {
	key := []byte("startxref")
	si := bytes.LastIndex(data, key)
	if si < 0 {
		return nil, container.NewError(container.KindRepair,
			"CARR-REP-004", "no startxref keyword found after trailer")
	}
	i := si + len(key)
	for i < len(data) && (data[i] == '\r' || data[i] == '\n' || data[i] == ' ') {
		i++
	}
	numStart := i
	for i < len(data) && data[i] >= '0' && data[i] <= '9' {
		i++
	}
	if i == numStart {
		return nil, container.OffsetError(container.KindRepair,
			"CARR-REP-004", numStart, "startxref keyword not followed by an offset")
	}

	out := make([]byte, 0, len(data))
	out = append(out, data[:numStart]...)
	out = append(out, []byte(fmt.Sprintf("%d", xrefOffset))...)
	out = append(out, data[i:]...)
	return out, nil
}
