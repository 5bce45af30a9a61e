package locator

import (
	"bytes"
	"testing"

	"xcoll.dev/carrier/container"
)

var testOID = []byte{0x06, 0x07, 0x2A, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08} // 1.2.3.4.5.6.7.8

func tlvCarrier(t *testing.T, lengthField []byte, valueLen int) []byte {
	t.Helper()
	data := []byte{0x30, 0x00, 0x01, 0x02} // noise before the pattern
	data = append(data, testOID...)
	data = append(data, 0x04)
	data = append(data, lengthField...)
	data = append(data, make([]byte, valueLen)...)
	return append(data, 0xAB, 0xCD) // trailing bytes outside the region
}

func TestLocateTLV_ShortForm(t *testing.T) {
	data := tlvCarrier(t, []byte{0x10}, 0x10)
	r, err := LocateTLV(data, testOID, 0x04)
	if err != nil {
		t.Fatalf("LocateTLV: %v", err)
	}
	wantStart := 4 + len(testOID) + 2
	if r.Start != wantStart || r.Capacity != 0x10 {
		t.Fatalf("got (%d,%d) want (%d,16)", r.Start, r.Capacity, wantStart)
	}
}

func TestLocateTLV_LongForm(t *testing.T) {
	cases := []struct {
		name    string
		field   []byte
		wantCap int
	}{
		{"one-byte", []byte{0x81, 0x80}, 0x80},
		{"two-byte", []byte{0x82, 0x01, 0x00}, 0x100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := tlvCarrier(t, tc.field, tc.wantCap)
			r, err := LocateTLV(data, testOID, 0x04)
			if err != nil {
				t.Fatalf("LocateTLV: %v", err)
			}
			wantStart := 4 + len(testOID) + 1 + len(tc.field)
			if r.Start != wantStart || r.Capacity != tc.wantCap {
				t.Fatalf("got (%d,%d) want (%d,%d)", r.Start, r.Capacity, wantStart, tc.wantCap)
			}
		})
	}
}

func TestLocateTLV_TagMismatch(t *testing.T) {
	data := tlvCarrier(t, []byte{0x04}, 4)
	data[4+len(testOID)] = 0x30 // SEQUENCE where OCTET STRING is expected
	_, err := LocateTLV(data, testOID, 0x04)
	if container.RuleID(err) != "CARR-FMT-011" {
		t.Fatalf("expected CARR-FMT-011, got %v", err)
	}
	if off := container.ErrOffset(err); off != 4+len(testOID) {
		t.Fatalf("tag mismatch offset: got %d want %d", off, 4+len(testOID))
	}
}

func TestLocateTLV_UnsupportedLengthForm(t *testing.T) {
	data := tlvCarrier(t, []byte{0x83, 0x00, 0x00, 0x10}, 0x10)
	_, err := LocateTLV(data, testOID, 0x04)
	if container.RuleID(err) != "CARR-FMT-012" {
		t.Fatalf("expected CARR-FMT-012, got %v", err)
	}
}

func TestLocateTLV_DeclaredLengthPastEnd(t *testing.T) {
	data := tlvCarrier(t, []byte{0x7F}, 2) // declares 127 but only 2+2 bytes follow
	_, err := LocateTLV(data, testOID, 0x04)
	if container.RuleID(err) != "CARR-FMT-014" {
		t.Fatalf("expected CARR-FMT-014, got %v", err)
	}
}

func TestLocateTLV_PatternMissing(t *testing.T) {
	_, err := LocateTLV([]byte{0x30, 0x03, 0x02, 0x01, 0x01}, testOID, 0x04)
	if container.RuleID(err) != "CARR-FMT-010" {
		t.Fatalf("expected CARR-FMT-010, got %v", err)
	}
}

func TestEncodeOID(t *testing.T) {
	got, err := EncodeOID("1.2.3.4.5.6.7.8")
	if err != nil {
		t.Fatalf("EncodeOID: %v", err)
	}
	if !bytes.Equal(got, testOID) {
		t.Fatalf("EncodeOID: got %x want %x", got, testOID)
	}
	// Multi-byte arc: 1.2.840 -> 2A 86 48.
	got, err = EncodeOID("1.2.840")
	if err != nil {
		t.Fatalf("EncodeOID: %v", err)
	}
	if !bytes.Equal(got, []byte{0x06, 0x03, 0x2A, 0x86, 0x48}) {
		t.Fatalf("EncodeOID(1.2.840): got %x", got)
	}
	if _, err := EncodeOID("1"); err == nil {
		t.Fatalf("expected error for single-arc OID")
	}
}

// jpegStream assembles a marker stream from parts.
func jpegStream(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func jpegSegment(marker byte, payload []byte) []byte {
	l := len(payload) + 2
	return append([]byte{0xFF, marker, byte(l >> 8), byte(l)}, payload...)
}

func TestLocateJPEG_SecondComment(t *testing.T) {
	data := jpegStream(
		[]byte{0xFF, 0xD8},
		jpegSegment(MarkerAPP0, []byte("JFIF\x00")),
		jpegSegment(MarkerCOM, []byte("first")),
		[]byte{0xFF, 0xFF},                        // fill bytes before the next marker
		jpegSegment(MarkerCOM, make([]byte, 0x20)), // the target
		[]byte{0xFF, 0xD9},
	)
	r, err := LocateJPEG(data, MarkerCOM, 2)
	if err != nil {
		t.Fatalf("LocateJPEG: %v", err)
	}
	if r.Capacity != 0x20 {
		t.Fatalf("capacity: got %d want 32", r.Capacity)
	}
	// The declared length must bound the region exactly.
	lenPos := r.Start - 2
	declared := int(data[lenPos])<<8 | int(data[lenPos+1])
	if declared != r.Capacity+2 {
		t.Fatalf("declared length %d does not bound capacity %d", declared, r.Capacity)
	}
}

func TestLocateJPEG_MarkerNotFound(t *testing.T) {
	data := jpegStream(
		[]byte{0xFF, 0xD8},
		jpegSegment(MarkerCOM, []byte("only one")),
		[]byte{0xFF, 0xD9},
	)
	_, err := LocateJPEG(data, MarkerCOM, 2)
	if container.RuleID(err) != "CARR-FMT-021" {
		t.Fatalf("expected CARR-FMT-021, got %v", err)
	}
}

func TestWalkJPEG_EntropyDataAndRestarts(t *testing.T) {
	data := jpegStream(
		[]byte{0xFF, 0xD8},
		jpegSegment(MarkerSOS, []byte{0x01, 0x00}),
		// Entropy-coded bytes with a stuffed 0xFF00 and a restart marker.
		[]byte{0x12, 0xFF, 0x00, 0x34, 0xFF, 0xD0, 0x56},
		[]byte{0xFF, 0xD9},
	)
	segs, err := WalkJPEG(data)
	if err != nil {
		t.Fatalf("WalkJPEG: %v", err)
	}
	last := segs[len(segs)-1]
	if last.Marker != MarkerEOI {
		t.Fatalf("did not reach EOI, last marker 0x%02x", last.Marker)
	}
	if !EOIReachable(data) {
		t.Fatalf("EOIReachable = false")
	}
}

func TestWalkJPEG_TruncatedLength(t *testing.T) {
	data := []byte{0xFF, 0xD8, 0xFF, 0xFE, 0x10} // COM with half a length field
	_, err := WalkJPEG(data)
	if container.RuleID(err) != "CARR-FMT-022" {
		t.Fatalf("expected CARR-FMT-022, got %v", err)
	}
}

func TestWalkJPEG_MissingSOI(t *testing.T) {
	if _, err := WalkJPEG([]byte{0x00, 0x01, 0x02, 0x03}); container.RuleID(err) != "CARR-FMT-020" {
		t.Fatalf("expected CARR-FMT-020, got %v", err)
	}
}

func TestLocatePDFStream(t *testing.T) {
	body := make([]byte, 12)
	pdf := []byte("%PDF-1.7\n4 0 obj\n<< /Type /EmbeddedFile /Length 12 >>\nstream\n")
	start := len(pdf)
	pdf = append(pdf, body...)
	pdf = append(pdf, []byte("\nendstream\nendobj\n")...)

	r, err := LocatePDFStream(pdf, []byte("/Type /EmbeddedFile"))
	if err != nil {
		t.Fatalf("LocatePDFStream: %v", err)
	}
	if r.Start != start || r.Capacity != 12 {
		t.Fatalf("got (%d,%d) want (%d,12)", r.Start, r.Capacity, start)
	}
}

func TestLocatePDFStream_LengthDoesNotBound(t *testing.T) {
	pdf := []byte("<< /Type /EmbeddedFile /Length 99 >>\nstream\n")
	pdf = append(pdf, make([]byte, 99)...)
	pdf = append(pdf, []byte("XXXendstream")...)
	_, err := LocatePDFStream(pdf, []byte("/Type /EmbeddedFile"))
	if container.RuleID(err) != "CARR-FMT-033" {
		t.Fatalf("expected CARR-FMT-033, got %v", err)
	}
}

func TestCountEOF(t *testing.T) {
	data := []byte("%%EOF\njunk%%EOF\ntail")
	n, trailing := CountEOF(data)
	if n != 2 || trailing != len("\ntail") {
		t.Fatalf("CountEOF: got (%d,%d)", n, trailing)
	}
	n, trailing = CountEOF([]byte("no token"))
	if n != 0 || trailing != -1 {
		t.Fatalf("CountEOF empty: got (%d,%d)", n, trailing)
	}
}

func TestParseGzipHeader_AllOptionalFields(t *testing.T) {
	hdr := []byte{0x1F, 0x8B, 0x08, gzipFlagExtra | gzipFlagName | gzipFlagComment | gzipFlagHCRC,
		0, 0, 0, 0, 0, 0xFF}
	hdr = append(hdr, 0x02, 0x00, 0xAA, 0xBB) // FEXTRA, 2 bytes
	hdr = append(hdr, []byte("name\x00")...)
	hdr = append(hdr, []byte("a comment\x00")...)
	hdr = append(hdr, 0x12, 0x34) // FHCRC
	data := append(hdr, 0xDE, 0xAD)

	h, err := ParseGzipHeader(data)
	if err != nil {
		t.Fatalf("ParseGzipHeader: %v", err)
	}
	if h.Name != "name" || h.Comment != "a comment" || h.ExtraLen != 2 {
		t.Fatalf("unexpected header: %+v", h)
	}
	if h.HeaderLen != len(hdr) {
		t.Fatalf("HeaderLen: got %d want %d", h.HeaderLen, len(hdr))
	}

	r, err := LocateGzip(data)
	if err != nil {
		t.Fatalf("LocateGzip: %v", err)
	}
	if r.Start != len(hdr) || r.Capacity != 2 {
		t.Fatalf("LocateGzip: got (%d,%d) want (%d,2)", r.Start, r.Capacity, len(hdr))
	}
}

func TestLocateGzip_NarrowsToLeadingStoredBlock(t *testing.T) {
	data := []byte{0x1F, 0x8B, 0x08, 0x00, 0, 0, 0, 0, 0x00, 0xFF}
	data = append(data, 0x00, 0x08, 0x00, 0xF7, 0xFF) // stored block, LEN=8
	data = append(data, make([]byte, 8)...)
	data = append(data, 0x01, 0x00, 0x00, 0xFF, 0xFF) // final empty stored block
	data = append(data, make([]byte, 8)...)           // CRC32 + ISIZE

	r, err := LocateGzip(data)
	if err != nil {
		t.Fatalf("LocateGzip: %v", err)
	}
	if r.Start != 15 || r.Capacity != 8 {
		t.Fatalf("LocateGzip: got (%d,%d) want (15,8)", r.Start, r.Capacity)
	}

	// A declared length running past end of carrier falls back to the
	// coarse after-header region.
	bad := []byte{0x1F, 0x8B, 0x08, 0x00, 0, 0, 0, 0, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0x00, 0xFF}
	r, err = LocateGzip(bad)
	if err != nil {
		t.Fatalf("LocateGzip fallback: %v", err)
	}
	if r.Start != 10 || r.Capacity != 5 {
		t.Fatalf("fallback: got (%d,%d) want (10,5)", r.Start, r.Capacity)
	}
}

func TestParseGzipHeader_Rejects(t *testing.T) {
	if _, err := ParseGzipHeader([]byte{0x50, 0x4B, 0x03, 0x04}); container.RuleID(err) != "CARR-FMT-040" {
		t.Fatalf("expected CARR-FMT-040 for non-gzip magic, got %v", err)
	}
	bad := []byte{0x1F, 0x8B, 0x08, 0xE0, 0, 0, 0, 0, 0, 0xFF}
	if _, err := ParseGzipHeader(bad); container.RuleID(err) != "CARR-FMT-042" {
		t.Fatalf("expected CARR-FMT-042 for reserved flags, got %v", err)
	}
	trunc := []byte{0x1F, 0x8B, 0x08, gzipFlagName, 0, 0, 0, 0, 0, 0xFF, 'n', 'o', 'n', 'u', 'l'}
	if _, err := ParseGzipHeader(trunc); container.RuleID(err) != "CARR-FMT-041" {
		t.Fatalf("expected CARR-FMT-041 for unterminated name, got %v", err)
	}
}

func TestLocate_Dispatch(t *testing.T) {
	raw := []byte{1, 2, 3}
	r, err := Locate(raw, container.FormatRaw, Marker{})
	if err != nil || r.Start != 0 || r.Capacity != 3 {
		t.Fatalf("raw dispatch: %v %+v", err, r)
	}
	if _, err := Locate(raw, container.FormatTBS, Marker{}); container.RuleID(err) != "CARR-FMT-001" {
		t.Fatalf("expected CARR-FMT-001 for missing OID, got %v", err)
	}
	if _, err := Locate(raw, container.Format("elf"), Marker{}); container.RuleID(err) != "CARR-FMT-002" {
		t.Fatalf("expected CARR-FMT-002 for unknown format, got %v", err)
	}
}
