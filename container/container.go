// Package container defines the byte-level model shared by every pipeline
// stage: a format-tagged byte buffer plus a validated reserved-region
// descriptor, and the structured error taxonomy used across the module.
//
// A Container owns its bytes. The two halves of an artifact pair under
// construction never alias each other's buffers; every stage takes and
// returns Containers rather than raw byte slices so the offset/capacity
// contract travels with the data.
package container

// Format tags the carrier file format of a Container.
type Format string

const (
	FormatRaw  Format = "raw"
	FormatTBS  Format = "x509-tbs"
	FormatPDF  Format = "pdf"
	FormatJPEG Format = "jpeg"
	FormatGzip Format = "gzip"
)

// ParseFormat maps a format tag string to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatRaw, FormatTBS, FormatPDF, FormatJPEG, FormatGzip:
		return Format(s), nil
	}
	return "", NewError(KindFormat, "CARR-CNT-003", "unknown format tag "+s)
}

// Region is a half-open byte range [Start, Start+Capacity) reserved to host
// a collision payload.
//
// Invariant: the enclosing format's own length field (ASN.1 TLV length,
// JPEG segment length, PDF /Length, deflate stored-block LEN) must declare
// exactly Capacity bytes, never the actually-used length, so that unused
// zero padding stays a legal part of the region.
type Region struct {
	Start    int
	Capacity int
}

// End returns the first byte offset past the region.
func (r Region) End() int { return r.Start + r.Capacity }

// Container owns a mutable in-memory copy of a carrier file's bytes
// together with the reserved region writes must stay confined to.
type Container struct {
	format Format
	region Region
	data   []byte
}

// New copies data into a fresh Container, validating that the reserved
// region lies entirely within it.
func New(format Format, data []byte, region Region) (*Container, error) {
	if region.Start < 0 || region.Capacity < 0 {
		return nil, NewError(KindFormat, "CARR-CNT-001", "negative reserved-region bounds")
	}
	if region.End() > len(data) {
		return nil, OffsetError(KindFormat, "CARR-CNT-002", region.End(),
			"reserved region exceeds carrier length")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Container{format: format, region: region, data: buf}, nil
}

// Format returns the carrier's format tag.
func (c *Container) Format() Format { return c.format }

// Region returns the reserved-region descriptor.
func (c *Container) Region() Region { return c.region }

// Len returns the total carrier length in bytes.
func (c *Container) Len() int { return len(c.data) }

// Bytes returns the carrier's live buffer. The slice is owned by the
// Container; callers that need a stable copy must use Snapshot.
func (c *Container) Bytes() []byte { return c.data }

// Snapshot returns an independent copy of the carrier bytes.
func (c *Container) Snapshot() []byte {
	out := make([]byte, len(c.data))
	copy(out, c.data)
	return out
}

// Clone returns a deep copy sharing no memory with the receiver.
func (c *Container) Clone() *Container {
	return &Container{format: c.format, region: c.region, data: c.Snapshot()}
}

// Replace swaps the carrier bytes wholesale, revalidating the region.
// Used by repair stages that rebuild structural tables in place.
func (c *Container) Replace(data []byte) error {
	if c.region.End() > len(data) {
		return OffsetError(KindFormat, "CARR-CNT-002", c.region.End(),
			"reserved region exceeds carrier length after replacement")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c.data = buf
	return nil
}
