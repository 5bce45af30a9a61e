// Package repair reconciles a carrier's structural bookkeeping after an
// overlay or merge shifted absolute offsets. Formats whose reserved region
// is self-contained need no repair and pass through unchanged; PDF gets its
// cross-reference table and startxref pointer recomputed.
//
// Repair is idempotent: running it on already-consistent bytes returns the
// same bytes.
package repair

import (
	"xcoll.dev/carrier/container"
)

// Repair recomputes structural tables for the given format.
func Repair(format container.Format, data []byte) ([]byte, error) {
	switch format {
	case container.FormatPDF:
		return RepairPDF(data)
	case container.FormatRaw, container.FormatTBS, container.FormatJPEG, container.FormatGzip:
		// Self-contained reserved regions: nothing references absolute
		// offsets past the overlay, so the carrier is already consistent.
		return data, nil
	default:
		return nil, container.NewError(container.KindRepair,
			"CARR-REP-007", "no repair procedure for format "+string(format))
	}
}
