package verify

import (
	"fmt"
	"strings"
)

const hexdumpWidth = 16

func dumpRow(sb *strings.Builder, data []byte, off int) {
	end := off + hexdumpWidth
	if end > len(data) {
		end = len(data)
	}
	fmt.Fprintf(sb, "%08x  ", off)
	for i := off; i < off+hexdumpWidth; i++ {
		if i < end {
			fmt.Fprintf(sb, "%02x ", data[i])
		} else {
			sb.WriteString("   ")
		}
		if i-off == 7 {
			sb.WriteByte(' ')
		}
	}
	sb.WriteString(" |")
	for i := off; i < end; i++ {
		c := data[i]
		if c < 0x20 || c > 0x7e {
			c = '.'
		}
		sb.WriteByte(c)
	}
	sb.WriteString("|\n")
}

// Hexdump renders data[start:end) as classic 16-byte hexdump rows with
// absolute offsets.
func Hexdump(data []byte, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(data) {
		end = len(data)
	}
	var sb strings.Builder
	for off := start - start%hexdumpWidth; off < end; off += hexdumpWidth {
		dumpRow(&sb, data[:end], off)
	}
	return sb.String()
}

// HexdumpHead renders the first n bytes of data.
func HexdumpHead(data []byte, n int) string {
	return Hexdump(data, 0, n)
}

// DiffDump renders the rows of a and b covering [start, end) side by
// side, with a caret line under each pair of rows marking the byte
// columns where the two differ. Offsets are absolute, so the output
// lines up with a plain Hexdump of either artifact.
func DiffDump(a, b []byte, start, end int) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if end > n {
		end = n
	}
	if start < 0 {
		start = 0
	}
	var sb strings.Builder
	for off := start - start%hexdumpWidth; off < end; off += hexdumpWidth {
		dumpRow(&sb, a[:min(off+hexdumpWidth, end)], off)
		dumpRow(&sb, b[:min(off+hexdumpWidth, end)], off)
		sb.WriteString(caretLine(a, b, off, end))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func caretLine(a, b []byte, off, end int) string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", 10))
	for i := off; i < off+hexdumpWidth; i++ {
		mark := "   "
		if i < end && a[i] != b[i] {
			mark = "^^ "
		}
		sb.WriteString(mark)
		if i-off == 7 {
			sb.WriteByte(' ')
		}
	}
	return strings.TrimRight(sb.String(), " ")
}
