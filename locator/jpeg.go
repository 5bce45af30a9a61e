package locator

import (
	"fmt"

	"xcoll.dev/carrier/container"
)

// JPEG segment markers used by the walker. See the JFIF/JPEG marker tables;
// only the ones the toolkit touches get names.
const (
	MarkerSOI  = 0xD8
	MarkerEOI  = 0xD9
	MarkerTEM  = 0x01
	MarkerSOS  = 0xDA
	MarkerAPP0 = 0xE0
	MarkerCOM  = 0xFE
)

// Segment is one entry in a JPEG marker stream.
type Segment struct {
	Marker byte
	// Offset of the 0xFF byte introducing the marker (after any fill run).
	Offset int
	// DataOffset is the first payload byte, past the two length bytes.
	// Zero-payload standalone markers have DataOffset == Offset+2.
	DataOffset int
	// Length is the declared big-endian segment length, including the two
	// length bytes themselves. Standalone markers carry none and report 0.
	Length int
}

func standalone(marker byte) bool {
	return marker == MarkerSOI || marker == MarkerEOI || marker == MarkerTEM ||
		(marker >= 0xD0 && marker <= 0xD7)
}

// WalkJPEG scans the marker stream from SOI to EOI and returns the segments
// encountered, in order. Entropy-coded data after SOS is skipped byte-wise:
// stuffed 0xFF00 pairs and restart markers do not terminate the scan.
//
// A missing EOI is not an error here; callers checking end-of-image
// reachability inspect the final segment. Truncated length fields and a
// missing SOI are hard format errors.
func WalkJPEG(data []byte) ([]Segment, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != MarkerSOI {
		return nil, container.OffsetError(container.KindFormat,
			"CARR-FMT-020", 0, "carrier does not start with a JPEG SOI marker")
	}
	segs := []Segment{{Marker: MarkerSOI, Offset: 0, DataOffset: 2}}

	i := 2
	for i < len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		// Skip fill bytes: a run of 0xFF collapses to one marker prefix.
		j := i
		for j < len(data) && data[j] == 0xFF {
			j++
		}
		if j >= len(data) {
			break
		}
		marker := data[j]
		if marker == 0x00 {
			// Stuffed data byte inside an entropy-coded run.
			i = j + 1
			continue
		}
		if standalone(marker) {
			segs = append(segs, Segment{Marker: marker, Offset: j - 1, DataOffset: j + 1})
			if marker == MarkerEOI {
				return segs, nil
			}
			i = j + 1
			continue
		}
		if j+2 >= len(data) {
			return nil, container.OffsetError(container.KindFormat,
				"CARR-FMT-022", j+1, "carrier truncated inside segment length field")
		}
		length := int(data[j+1])<<8 | int(data[j+2])
		if length < 2 || j+1+length > len(data) {
			return nil, container.OffsetError(container.KindFormat,
				"CARR-FMT-022", j+1,
				fmt.Sprintf("declared segment length %d exceeds carrier", length))
		}
		segs = append(segs, Segment{
			Marker:     marker,
			Offset:     j - 1,
			DataOffset: j + 3,
			Length:     length,
		})
		i = j + 1 + length
	}
	return segs, nil
}

// LocateJPEG finds the n-th occurrence (1-based) of a marker type and
// returns its payload range: offset just past the length field, capacity
// equal to the declared length minus the two length bytes.
func LocateJPEG(data []byte, marker byte, occurrence int) (container.Region, error) {
	if occurrence < 1 {
		return container.Region{}, container.NewError(container.KindFormat,
			"CARR-FMT-021", "marker occurrence must be >= 1")
	}
	segs, err := WalkJPEG(data)
	if err != nil {
		return container.Region{}, err
	}
	seen := 0
	for _, s := range segs {
		if s.Marker != marker {
			continue
		}
		seen++
		if seen == occurrence {
			if s.Length == 0 {
				return container.Region{}, container.OffsetError(container.KindFormat,
					"CARR-FMT-021", s.Offset,
					fmt.Sprintf("marker 0x%02x carries no payload", marker))
			}
			return container.Region{Start: s.DataOffset, Capacity: s.Length - 2}, nil
		}
	}
	return container.Region{}, container.OffsetError(container.KindFormat,
		"CARR-FMT-021", len(data),
		fmt.Sprintf("marker stream ended before occurrence %d of 0x%02x (found %d)", occurrence, marker, seen))
}

// EOIReachable reports whether the marker stream parses through to an EOI.
func EOIReachable(data []byte) bool {
	segs, err := WalkJPEG(data)
	if err != nil || len(segs) == 0 {
		return false
	}
	return segs[len(segs)-1].Marker == MarkerEOI
}
