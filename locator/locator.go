// Package locator finds the reserved region inside a carrier file: the byte
// offset and declared capacity of the range designated to hold a collision
// payload. Each supported format has a dedicated locator; Locate dispatches
// on the container format tag.
//
// Locators never mutate the carrier. All failures are structured
// container.Errors of KindFormat, anchored at the offending byte offset.
package locator

import (
	"fmt"

	"xcoll.dev/carrier/container"
)

// Marker identifies the reserved region within a carrier. Which fields are
// consulted depends on the format:
//
//   - x509-tbs: OID (DER bytes of the extension identifier) and Tag (the
//     ASN.1 tag expected right after it; OCTET STRING when zero).
//   - jpeg: JPEGMarker (segment marker byte, COM when zero) and Occurrence
//     (1-based; 1 when zero).
//   - pdf: StreamDict (literal dictionary token preceding the target
//     stream; "/Type /EmbeddedFile" when empty).
//   - gzip, raw: no fields consulted.
type Marker struct {
	OID        []byte
	Tag        byte
	JPEGMarker byte
	Occurrence int
	StreamDict string
}

// DefaultEmbeddedFileDict is the PDF dictionary token used when
// Marker.StreamDict is empty.
const DefaultEmbeddedFileDict = "/Type /EmbeddedFile"

// Locate finds the reserved region in data according to the format tag.
func Locate(data []byte, format container.Format, m Marker) (container.Region, error) {
	switch format {
	case container.FormatTBS:
		if len(m.OID) == 0 {
			return container.Region{}, container.NewError(container.KindFormat,
				"CARR-FMT-001", "x509-tbs locate requires an OID marker")
		}
		tag := m.Tag
		if tag == 0 {
			tag = tagOctetString
		}
		return LocateTLV(data, m.OID, tag)
	case container.FormatJPEG:
		marker := m.JPEGMarker
		if marker == 0 {
			marker = MarkerCOM
		}
		occ := m.Occurrence
		if occ == 0 {
			occ = 1
		}
		return LocateJPEG(data, marker, occ)
	case container.FormatPDF:
		dict := m.StreamDict
		if dict == "" {
			dict = DefaultEmbeddedFileDict
		}
		return LocatePDFStream(data, []byte(dict))
	case container.FormatGzip:
		return LocateGzip(data)
	case container.FormatRaw:
		return container.Region{Start: 0, Capacity: len(data)}, nil
	default:
		return container.Region{}, container.NewError(container.KindFormat,
			"CARR-FMT-002", fmt.Sprintf("no locator for format %q", format))
	}
}
