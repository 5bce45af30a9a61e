package locator

import (
	"bytes"

	"xcoll.dev/carrier/container"
)

// LocatePDFStream finds a stream body by literal token search: the first
// occurrence of dictToken, the /Length entry after it, then the `stream`
// keyword. The region starts on the first byte after the stream keyword's
// end-of-line and its capacity is the declared /Length value.
//
// The declared length must land the region on the matching `endstream`
// token (an EOL between body and keyword is tolerated, per the PDF grammar).
func LocatePDFStream(data, dictToken []byte) (container.Region, error) {
	base := bytes.Index(data, dictToken)
	if base < 0 {
		return container.Region{}, container.NewError(container.KindFormat,
			"CARR-FMT-030", "stream dictionary token not found: "+string(dictToken))
	}

	lengthKey := []byte("/Length")
	li := bytes.Index(data[base:], lengthKey)
	if li < 0 {
		return container.Region{}, container.OffsetError(container.KindFormat,
			"CARR-FMT-031", base, "no /Length entry after stream dictionary token")
	}
	li += base + len(lengthKey)
	length, li, ok := parsePDFInt(data, li)
	if !ok {
		return container.Region{}, container.OffsetError(container.KindFormat,
			"CARR-FMT-031", li, "malformed /Length value")
	}

	si := bytes.Index(data[li:], []byte("stream"))
	if si < 0 {
		return container.Region{}, container.OffsetError(container.KindFormat,
			"CARR-FMT-030", li, "no stream keyword after dictionary")
	}
	start := li + si + len("stream")
	// The keyword is followed by CRLF or LF; the body starts after it.
	if start < len(data) && data[start] == '\r' {
		start++
	}
	if start < len(data) && data[start] == '\n' {
		start++
	}

	end := start + length
	if end > len(data) {
		return container.Region{}, container.OffsetError(container.KindFormat,
			"CARR-FMT-032", end, "declared /Length exceeds carrier")
	}
	tail := data[end:]
	if len(tail) > 0 && tail[0] == '\r' {
		tail = tail[1:]
	}
	if len(tail) > 0 && tail[0] == '\n' {
		tail = tail[1:]
	}
	if !bytes.HasPrefix(tail, []byte("endstream")) {
		return container.Region{}, container.OffsetError(container.KindFormat,
			"CARR-FMT-033", end, "declared /Length does not bound the stream at endstream")
	}
	return container.Region{Start: start, Capacity: length}, nil
}

// parsePDFInt reads a whitespace-prefixed decimal integer starting at i.
// Returns the value, the index of the first byte past it, and validity.
func parsePDFInt(data []byte, i int) (int, int, bool) {
	for i < len(data) && (data[i] == ' ' || data[i] == '\t') {
		i++
	}
	start := i
	v := 0
	for i < len(data) && data[i] >= '0' && data[i] <= '9' {
		v = v*10 + int(data[i]-'0')
		i++
	}
	if i == start {
		return 0, i, false
	}
	return v, i, true
}

// CountEOF returns the number of %%EOF tokens and the count of trailing
// bytes after the last one (-1 when no token exists).
func CountEOF(data []byte) (count, trailing int) {
	tok := []byte("%%EOF")
	trailing = -1
	for i := 0; ; {
		j := bytes.Index(data[i:], tok)
		if j < 0 {
			break
		}
		count++
		i += j + len(tok)
		trailing = len(data) - i
	}
	return count, trailing
}
