// Package overlay writes collision blocks into a carrier's reserved region.
//
// The engine never moves bytes: the block replaces exactly
// [start+prefixLen, start+prefixLen+len(block)) inside the reserved region,
// the declared padding around it stays untouched, and nothing outside the
// region is written. Capacity violations are configuration-time failures
// reported with the sizes needed to reconfigure and retry.
package overlay

import (
	"fmt"

	"xcoll.dev/carrier/container"
)

// Apply writes block into c's reserved region at prefixLen bytes past the
// region start. Bytes before the block (the textual or structural prefix)
// and after it (declared padding) are left exactly as found.
func Apply(c *container.Container, prefixLen int, block []byte) error {
	if prefixLen < 0 {
		return container.NewError(container.KindOverlay,
			"CARR-OVL-002", "negative prefix length")
	}
	r := c.Region()
	need := prefixLen + len(block)
	if need > r.Capacity {
		return container.NewError(container.KindOverlay, "CARR-OVL-001",
			fmt.Sprintf("payload too large for reserved region: need %d bytes, capacity %d (enlarge the reserved capacity and rebuild)",
				need, r.Capacity))
	}
	copy(c.Bytes()[r.Start+prefixLen:], block)
	return nil
}

// ApplyPair applies each collision block to its carrier copy, enforcing the
// cross-cutting alignment contract up front: both blocks must be the same
// length and must land at the same absolute byte offset in their respective
// carriers. Misalignment would silently void the hash-equality property, so
// it is rejected here rather than discovered at verification time.
func ApplyPair(a, b *container.Container, prefixLenA, prefixLenB int, blockA, blockB []byte) error {
	if len(blockA) != len(blockB) {
		return container.NewError(container.KindOverlay, "CARR-OVL-004",
			fmt.Sprintf("collision blocks differ in length: %d vs %d", len(blockA), len(blockB)))
	}
	offA := a.Region().Start + prefixLenA
	offB := b.Region().Start + prefixLenB
	if offA != offB {
		return container.NewError(container.KindOverlay, "CARR-OVL-003",
			fmt.Sprintf("misaligned pair: block offsets %d vs %d must match for the hash-equality property to hold", offA, offB))
	}
	if err := Apply(a, prefixLenA, blockA); err != nil {
		return err
	}
	return Apply(b, prefixLenB, blockB)
}
