package repair

import (
	"bytes"
	"fmt"
	"strconv"
	"testing"

	"xcoll.dev/carrier/container"
)

// testPDF assembles a minimal four-object PDF with a correct xref table,
// optionally padded right after the header to shift every object offset.
func testPDF(pad string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	buf.WriteString(pad)

	offsets := make([]int, 5)
	obj := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}
	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	obj(2, "<< /Type /Pages /Count 1 /Kids [3 0 R] >>")
	obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 1 1] /Contents 4 0 R >>")
	obj(4, "<< /Length 0 >>\nstream\n\nendstream")

	startxref := buf.Len()
	buf.WriteString("xref\n0 5\n")
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 4; i++ {
		fmt.Fprintf(&buf, "%010d %05d n \n", offsets[i], 0)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Root 1 0 R /Size 5 >>\nstartxref\n%d\n%%%%EOF\n", startxref)
	return buf.Bytes()
}

func xrefTable(t *testing.T, data []byte) (start int, entries [][]byte) {
	t.Helper()
	ti := bytes.Index(data, []byte("\nxref\n"))
	if ti < 0 {
		t.Fatalf("no xref table")
	}
	start = ti + 1
	p := start + len("xref\n0 5\n")
	for i := 0; i < 5; i++ {
		entries = append(entries, data[p+i*20:p+(i+1)*20])
	}
	return start, entries
}

func TestRepairPDF_RecomputesShiftedOffsets(t *testing.T) {
	clean := testPDF("")
	// Shift every object by inserting a comment, leaving the xref stale.
	stale := testPDF("")
	stale = bytes.Replace(stale, []byte("%PDF-1.4\n"), []byte("%PDF-1.4\n% shifted by twenty-six\n"), 1)

	repaired, err := RepairPDF(stale)
	if err != nil {
		t.Fatalf("RepairPDF: %v", err)
	}

	tableStart, entries := xrefTable(t, repaired)
	for i := 1; i <= 4; i++ {
		off, err := strconv.Atoi(string(entries[i][:10]))
		if err != nil {
			t.Fatalf("entry %d: %v", i, err)
		}
		want := bytes.Index(repaired, []byte(fmt.Sprintf("\n%d 0 obj", i))) + 1
		if off != want {
			t.Fatalf("entry %d points at %d, object is at %d", i, off, want)
		}
	}

	// The rebuilt table must be byte-for-byte the same size as before.
	_, staleEntries := xrefTable(t, stale)
	if len(bytes.Join(entries, nil)) != len(bytes.Join(staleEntries, nil)) {
		t.Fatalf("xref table length changed")
	}

	// startxref must equal the offset of the literal xref token.
	si := bytes.LastIndex(repaired, []byte("startxref\n")) + len("startxref\n")
	ei := si
	for repaired[ei] >= '0' && repaired[ei] <= '9' {
		ei++
	}
	got, _ := strconv.Atoi(string(repaired[si:ei]))
	if got != tableStart {
		t.Fatalf("startxref %d, xref token at %d", got, tableStart)
	}

	// Clean input stays untouched modulo the already-correct values.
	again, err := RepairPDF(clean)
	if err != nil {
		t.Fatalf("RepairPDF(clean): %v", err)
	}
	if !bytes.Equal(again, clean) {
		t.Fatalf("repair of a consistent PDF changed bytes")
	}
}

func TestRepairPDF_Idempotent(t *testing.T) {
	stale := bytes.Replace(testPDF(""), []byte("%PDF-1.4\n"), []byte("%PDF-1.4\n% pad\n"), 1)
	once, err := RepairPDF(stale)
	if err != nil {
		t.Fatalf("first repair: %v", err)
	}
	twice, err := RepairPDF(once)
	if err != nil {
		t.Fatalf("second repair: %v", err)
	}
	if !bytes.Equal(once, twice) {
		t.Fatalf("repair is not idempotent")
	}
}

func TestRepairPDF_ObjectNotFound(t *testing.T) {
	data := testPDF("")
	data = bytes.Replace(data, []byte("3 0 obj"), []byte("9 9 obj"), 1)
	_, err := RepairPDF(data)
	if container.RuleID(err) != "CARR-REP-001" {
		t.Fatalf("expected CARR-REP-001, got %v", err)
	}
}

func TestRepairPDF_MissingTable(t *testing.T) {
	_, err := RepairPDF([]byte("%PDF-1.4\nno table here\n"))
	if container.RuleID(err) != "CARR-REP-003" {
		t.Fatalf("expected CARR-REP-003, got %v", err)
	}
}

func TestRepairPDF_UnsupportedSubsection(t *testing.T) {
	data := testPDF("")
	data = bytes.Replace(data, []byte("xref\n0 5\n"), []byte("xref\n2 3\n"), 1)
	_, err := RepairPDF(data)
	if container.RuleID(err) != "CARR-REP-006" {
		t.Fatalf("expected CARR-REP-006, got %v", err)
	}
}

func TestRepair_SelfContainedFormatsPassThrough(t *testing.T) {
	in := []byte{0x1F, 0x8B, 0x08, 0x00}
	for _, f := range []container.Format{container.FormatRaw, container.FormatTBS, container.FormatJPEG, container.FormatGzip} {
		out, err := Repair(f, in)
		if err != nil {
			t.Fatalf("Repair(%s): %v", f, err)
		}
		if !bytes.Equal(out, in) {
			t.Fatalf("Repair(%s) mutated a self-contained carrier", f)
		}
	}
}

func TestPassthroughNormalizer(t *testing.T) {
	in := []byte("unchanged")
	out, err := Passthrough{}.Normalize(nil, in)
	if err != nil || !bytes.Equal(out, in) {
		t.Fatalf("Passthrough: %v %q", err, out)
	}
}
