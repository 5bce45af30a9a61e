package template

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"xcoll.dev/carrier/container"
	"xcoll.dev/carrier/locator"
	"xcoll.dev/carrier/repair"
)

// pdfBuilder accumulates a PDF body and records the byte offset of
// every numbered object as it is written. All writes are byte-exact;
// binary payloads never pass through a text encoding.
type pdfBuilder struct {
	buf     bytes.Buffer
	offsets []int
}

func (p *pdfBuilder) header() {
	p.buf.WriteString("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")
}

func (p *pdfBuilder) object(num int, body string) {
	p.offsets = append(p.offsets, p.buf.Len())
	fmt.Fprintf(&p.buf, "%d 0 obj\n%s\nendobj\n", num, body)
}

func (p *pdfBuilder) streamObject(num int, dict string, data []byte) {
	p.offsets = append(p.offsets, p.buf.Len())
	fmt.Fprintf(&p.buf, "%d 0 obj\n%s\nstream\n", num, dict)
	p.buf.Write(data)
	p.buf.WriteString("\nendstream\nendobj\n")
}

// finish appends the xref table, trailer, startxref and %%EOF. Objects
// must have been written in numeric order starting at 1 so the table
// rows land on the right object numbers.
func (p *pdfBuilder) finish(trailerDict string) []byte {
	xref := p.buf.Len()
	fmt.Fprintf(&p.buf, "xref\n0 %d\n", len(p.offsets)+1)
	p.buf.WriteString("0000000000 65535 f \n")
	for _, off := range p.offsets {
		fmt.Fprintf(&p.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&p.buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailerDict, xref)
	return p.buf.Bytes()
}

// BuildMinimalPDF returns a small valid one-page document: catalog,
// page tree, one blank page, one empty content stream. It is the
// structural seed for the dual-catalog merge.
func BuildMinimalPDF() []byte {
	var p pdfBuilder
	p.buf.WriteString("%PDF-1.4\n")
	p.object(1, "<< /Type /Catalog /Pages 2 0 R >>")
	p.object(2, "<< /Type /Pages /Count 1 /Kids [3 0 R] >>")
	p.object(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 1 1] /Contents 4 0 R /Resources <<>> >>")
	p.streamObject(4, "<< /Length 0 >>", nil)
	return p.finish("<< /Root 1 0 R /Size 5 >>")
}

// BuildEmbeddedFilePDF wraps a reserved region in an /EmbeddedFile
// stream inside an otherwise ordinary one-page document. The stream's
// /Length declares the full capacity; the body is the prefix followed
// by zero padding.
func BuildEmbeddedFilePDF(capacity int, prefix []byte, title string) (*container.Container, error) {
	if capacity <= 0 {
		return nil, container.NewError(container.KindFormat, "CARR-TPL-010",
			"embedded file capacity must be positive")
	}
	if len(prefix) > capacity {
		return nil, container.NewError(container.KindFormat, "CARR-TPL-001",
			fmt.Sprintf("prefix is %d bytes but reserved capacity is only %d", len(prefix), capacity))
	}
	if title == "" {
		title = "Document"
	}

	body := make([]byte, capacity)
	copy(body, prefix)
	content := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET\n", title)

	var p pdfBuilder
	p.header()
	p.object(1, "<< /Type /Catalog /Pages 2 0 R >>")
	p.object(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	p.object(3, "<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 7 0 R >> >> /MediaBox [0 0 612 792]\n/Contents 8 0 R /StructParents 0 >>")
	p.streamObject(4, fmt.Sprintf("<< /Type /EmbeddedFile /Length %d >>", capacity), body)
	p.object(5, fmt.Sprintf("<< /Type /Filespec /F (%s) /EF << /F 4 0 R >> >>", title))
	p.object(6, "<< /Names [(Embedded) 5 0 R] >>")
	p.object(7, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	p.streamObject(8, fmt.Sprintf("<< /Length %d >>", len(content)), []byte(content))
	data := p.finish("<< /Size 9 /Root 1 0 R /Names 6 0 R >>")

	region, err := locator.LocatePDFStream(data, []byte(locator.DefaultEmbeddedFileDict))
	if err != nil {
		return nil, err
	}
	return container.New(container.FormatPDF, data, region)
}

// enclosed returns the bytes between the first occurrence of starts
// and the next ends, or nil when starts is absent.
func enclosed(d, starts, ends []byte) []byte {
	off := bytes.Index(d, starts)
	if off < 0 {
		return nil
	}
	off += len(starts)
	end := bytes.Index(d[off:], ends)
	if end < 0 {
		return d[off:]
	}
	return d[off : off+end]
}

// pageCount reads the first /Count value in a document.
func pageCount(d []byte) (int, error) {
	s := enclosed(d, []byte("/Count "), []byte("/"))
	if s == nil {
		return 0, container.NewError(container.KindFormat, "CARR-TPL-011",
			"document has no /Count entry")
	}
	n, err := strconv.Atoi(string(bytes.TrimSpace(s)))
	if err != nil {
		return 0, container.WrapError(container.KindFormat, "CARR-TPL-011",
			"malformed /Count entry", err)
	}
	return n, nil
}

// joinRefs renders object numbers as a /Kids array body ("7 0 R 8 0 R").
func joinRefs(nums [][]byte) []byte {
	return append(bytes.Join(nums, []byte(" 0 R ")), []byte(" 0 R")...)
}

const dualCatalogTemplate = `%%PDF-1.4

1 0 obj
<<
  /Type /Catalog
  %% retain alignment comments; merging/cleaning will strip comments
  /MD5_is__ /REALLY_dead_now__
  /Pages 2 0 R
  /Fakes 3 0 R
  %% placeholders for UniColl collision blocks
  /0123456789ABCDEF0123456789ABCDEF012
  /0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF0
>>
endobj

2 0 obj
<</Type/Pages/Count %d/Kids[%s]>>
endobj

3 0 obj
<</Type/Pages/Count %d/Kids[%s]>>
endobj

%% overwritten - was a fake page to fool merging
4 0 obj
<< >>
endobj

`

// MergeIntoDualCatalog combines two documents into one body carrying
// both page trees: the real catalog points /Pages at the second
// document's pages and /Fakes at the first's. Flipping which tree
// /Pages references is a one-block change, which is exactly what the
// UniColl prefix pair does. Inputs are normalized through mutool and
// the resulting xref is recomputed before the cleaned body is
// returned.
func MergeIntoDualCatalog(ctx context.Context, mt repair.Merger, pdf1, pdf2 []byte) ([]byte, error) {
	first, err := mt.Merge(ctx, pdf1)
	if err != nil {
		return nil, err
	}
	second, err := mt.Merge(ctx, pdf2)
	if err != nil {
		return nil, err
	}
	merged, err := mt.Merge(ctx, BuildMinimalPDF(), pdf1, pdf2)
	if err != nil {
		return nil, err
	}

	count1, err := pageCount(first)
	if err != nil {
		return nil, err
	}
	count2, err := pageCount(second)
	if err != nil {
		return nil, err
	}

	kids := enclosed(merged, []byte("/Kids["), []byte("]"))
	if kids == nil {
		return nil, container.NewError(container.KindFormat, "CARR-TPL-011",
			"merged document has no /Kids array")
	}
	// First kid is the seed page; drop it along with the trailing " 0 R".
	pages := bytes.Split(bytes.TrimSuffix(kids, []byte(" 0 R")), []byte(" 0 R "))[1:]
	if len(pages) < count1+count2 {
		return nil, container.NewError(container.KindFormat, "CARR-TPL-011",
			fmt.Sprintf("merged /Kids lists %d pages, need %d", len(pages), count1+count2))
	}

	kids1 := joinRefs(pages[:count1])
	kids2 := joinRefs(pages[count1:])

	var out bytes.Buffer
	fmt.Fprintf(&out, dualCatalogTemplate, count2, kids2, count1, kids1)

	cut := bytes.Index(merged, []byte("5 0 obj"))
	if cut < 0 {
		return nil, container.NewError(container.KindFormat, "CARR-TPL-011",
			"merged document has no \"5 0 obj\": normalizer renumbered objects unexpectedly")
	}
	rest := merged[cut:]
	out.Write(bytes.Replace(rest, []byte("/Parent 2 0 R"), []byte("/Parent 3 0 R"), count1))

	adjusted, err := repair.RepairPDF(out.Bytes())
	if err != nil {
		return nil, err
	}
	return mt.Normalize(ctx, adjusted)
}

// uniCollPrefixLen is how much of the cleaned body a UniColl prefix
// replaces: the prefix plus its newline cover the first 192 bytes.
const uniCollPrefixLen = 192

// SpliceUniCollPrefix produces the final colliding pair by replacing
// the head of the cleaned dual-catalog body with each 191-byte UniColl
// prefix followed by a newline.
func SpliceUniCollPrefix(cleaned, prefixA, prefixB []byte) (a, b []byte, err error) {
	if len(prefixA) != uniCollPrefixLen-1 || len(prefixB) != uniCollPrefixLen-1 {
		return nil, nil, container.NewError(container.KindFormat, "CARR-TPL-012",
			fmt.Sprintf("collision prefixes must be %d bytes, got %d and %d",
				uniCollPrefixLen-1, len(prefixA), len(prefixB)))
	}
	if len(cleaned) <= uniCollPrefixLen {
		return nil, nil, container.NewError(container.KindFormat, "CARR-TPL-012",
			fmt.Sprintf("cleaned body is only %d bytes, cannot cut at %d", len(cleaned), uniCollPrefixLen))
	}
	tail := cleaned[uniCollPrefixLen:]
	a = append(append(make([]byte, 0, len(prefixA)+1+len(tail)), prefixA...), '\n')
	a = append(a, tail...)
	b = append(append(make([]byte, 0, len(prefixB)+1+len(tail)), prefixB...), '\n')
	b = append(b, tail...)
	return a, b, nil
}
