package verify

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"

	"xcoll.dev/carrier/locator"
)

// JPEGSide holds the structural findings for one JPEG copy.
type JPEGSide struct {
	Parses       bool   `json:"parses"`
	ParseError   string `json:"parse_error,omitempty"`
	Segments     int    `json:"segments"`
	Comments     int    `json:"comments"`
	EOIReachable bool   `json:"eoi_reachable"`
}

// JPEGChecks pairs the per-copy JPEG findings.
type JPEGChecks struct {
	A JPEGSide `json:"a"`
	B JPEGSide `json:"b"`
}

func (c *JPEGChecks) OK() bool {
	return c.A.Parses && c.A.EOIReachable && c.B.Parses && c.B.EOIReachable
}

func checkJPEGSide(data []byte) JPEGSide {
	var side JPEGSide
	segs, err := locator.WalkJPEG(data)
	if err != nil {
		side.ParseError = err.Error()
		return side
	}
	side.Parses = true
	side.Segments = len(segs)
	for _, s := range segs {
		if s.Marker == locator.MarkerCOM {
			side.Comments++
		}
	}
	side.EOIReachable = locator.EOIReachable(data)
	return side
}

func checkJPEG(a, b []byte) *JPEGChecks {
	return &JPEGChecks{A: checkJPEGSide(a), B: checkJPEGSide(b)}
}

// PDFSide holds the trailer findings for one PDF copy. TrailingBytes
// is the number of bytes after the final %%EOF marker, or -1 when the
// document carries no %%EOF at all.
type PDFSide struct {
	EOFCount      int `json:"eof_count"`
	TrailingBytes int `json:"trailing_bytes"`
}

// PDFChecks pairs the per-copy PDF findings.
type PDFChecks struct {
	A PDFSide `json:"a"`
	B PDFSide `json:"b"`
}

func (c *PDFChecks) OK() bool {
	return c.A.EOFCount > 0 && c.B.EOFCount > 0
}

func checkPDFSide(data []byte) PDFSide {
	count, trailing := locator.CountEOF(data)
	return PDFSide{EOFCount: count, TrailingBytes: trailing}
}

func checkPDF(a, b []byte) *PDFChecks {
	return &PDFChecks{A: checkPDFSide(a), B: checkPDFSide(b)}
}

// GzipSide records how one gzip copy decompresses. Decompression
// findings are advisory: a stale CRC after an overlay is expected and
// never fails verification.
type GzipSide struct {
	HeaderOK        bool   `json:"header_ok"`
	HeaderError     string `json:"header_error,omitempty"`
	Members         int    `json:"members"`
	Decompressed    int    `json:"decompressed_bytes"`
	// DecompressedSHA256 digests everything recovered across all
	// members, so copies whose payloads decompress differently are
	// distinguishable even when their carrier bytes barely differ.
	DecompressedSHA256 string `json:"decompressed_sha256"`
	DecompressError    string `json:"decompress_error,omitempty"`
}

// GzipChecks pairs the per-copy gzip findings.
type GzipChecks struct {
	A GzipSide `json:"a"`
	B GzipSide `json:"b"`
}

func checkGzipSide(data []byte) (side GzipSide) {
	if _, err := locator.ParseGzipHeader(data); err != nil {
		side.HeaderError = err.Error()
		return side
	}
	side.HeaderOK = true

	sum := sha256.New()
	defer func() {
		side.DecompressedSHA256 = hex.EncodeToString(sum.Sum(nil))
	}()

	br := bytes.NewReader(data)
	zr, err := gzip.NewReader(br)
	if err != nil {
		side.DecompressError = err.Error()
		return side
	}
	defer zr.Close()
	for {
		zr.Multistream(false)
		n, err := io.Copy(sum, zr)
		side.Decompressed += int(n)
		if err != nil {
			side.DecompressError = err.Error()
			return side
		}
		side.Members++
		if err := zr.Reset(br); err != nil {
			if !errors.Is(err, io.EOF) {
				side.DecompressError = err.Error()
			}
			return side
		}
	}
}

func checkGzip(a, b []byte) *GzipChecks {
	return &GzipChecks{A: checkGzipSide(a), B: checkGzipSide(b)}
}
