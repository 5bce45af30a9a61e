// Package collision is the boundary to the collision-block producer.
// The search itself is an external concern; this package loads, pads
// and validates the resulting block pairs and wraps external search
// tools behind a Source.
package collision

import (
	"bytes"
	"fmt"
	"os"

	"xcoll.dev/carrier/container"
)

// WeakHashBlockSize is the MD5 compression block size. Collision
// blocks only line up with the hash state when their carrier offset is
// a multiple of this.
const WeakHashBlockSize = 64

// Pair is one colliding block pair. Both sides are always the same
// length and never byte-identical.
type Pair struct {
	A []byte
	B []byte
}

// Len returns the common block length.
func (p Pair) Len() int { return len(p.A) }

// NewPair validates and wraps a block pair. The blocks are copied.
func NewPair(a, b []byte) (Pair, error) {
	if len(a) != len(b) {
		return Pair{}, container.NewError(container.KindOverlay, "CARR-COL-002",
			fmt.Sprintf("collision blocks differ in length: %d vs %d", len(a), len(b)))
	}
	if len(a) == 0 {
		return Pair{}, container.NewError(container.KindOverlay, "CARR-COL-002",
			"collision blocks are empty")
	}
	if bytes.Equal(a, b) {
		return Pair{}, container.NewError(container.KindOverlay, "CARR-COL-003",
			"collision blocks are byte-identical")
	}
	return Pair{
		A: append([]byte(nil), a...),
		B: append([]byte(nil), b...),
	}, nil
}

// LoadPair reads a block pair from two files.
func LoadPair(pathA, pathB string) (Pair, error) {
	a, err := os.ReadFile(pathA)
	if err != nil {
		return Pair{}, container.WrapError(container.KindOverlay, "CARR-COL-001",
			"read collision block "+pathA, err)
	}
	b, err := os.ReadFile(pathB)
	if err != nil {
		return Pair{}, container.WrapError(container.KindOverlay, "CARR-COL-001",
			"read collision block "+pathB, err)
	}
	return NewPair(a, b)
}

// PadToBlock returns data zero-padded to a multiple of the weak hash
// block size. Aligned input is returned as is.
func PadToBlock(data []byte) []byte {
	rem := len(data) % WeakHashBlockSize
	if rem == 0 {
		return data
	}
	padded := make([]byte, len(data)+WeakHashBlockSize-rem)
	copy(padded, data)
	return padded
}
