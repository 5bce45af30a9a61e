package collision

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"xcoll.dev/carrier/container"
	"xcoll.dev/carrier/internal/execout"
)

// Source produces a colliding block pair for a given prefix. The
// prefix is what precedes the blocks in the carrier, starting at a
// block-aligned offset; the search pads it internally.
type Source interface {
	Generate(ctx context.Context, prefix []byte) (Pair, error)
}

// StaticSource hands out one fixed pair. Used in tests and when the
// blocks were produced out of band.
type StaticSource struct {
	Pair Pair
}

func (s StaticSource) Generate(context.Context, []byte) (Pair, error) {
	return s.Pair, nil
}

// ExecSource runs an external identical-prefix search binary with the
// fastcoll calling convention: `<bin> [extra args] -p <prefixfile> -o
// <out1> <out2>`. The outputs are the padded prefix followed by the
// collision blocks; Generate strips the prefix and returns the blocks
// alone. Cancellation and deadlines come from the caller's context;
// searches can run for minutes.
type ExecSource struct {
	Binary string
	Args   []string
}

func (s ExecSource) Generate(ctx context.Context, prefix []byte) (Pair, error) {
	dir, err := os.MkdirTemp("", "carrier-coll-")
	if err != nil {
		return Pair{}, container.WrapError(container.KindOverlay, "CARR-COL-004",
			"create scratch dir", err)
	}
	defer os.RemoveAll(dir)

	prefixPath := filepath.Join(dir, "prefix.bin")
	out1 := filepath.Join(dir, "m1.bin")
	out2 := filepath.Join(dir, "m2.bin")
	if err := os.WriteFile(prefixPath, prefix, 0o644); err != nil {
		return Pair{}, container.WrapError(container.KindOverlay, "CARR-COL-004",
			"write prefix", err)
	}

	args := append(append([]string(nil), s.Args...), "-p", prefixPath, "-o", out1, out2)
	if msg, err := exec.CommandContext(ctx, s.Binary, args...).CombinedOutput(); err != nil {
		return Pair{}, container.WrapError(container.KindOverlay, "CARR-COL-004",
			fmt.Sprintf("%s failed: %s", s.Binary, execout.FirstLine(msg)), err)
	}

	a, err := os.ReadFile(out1)
	if err != nil {
		return Pair{}, container.WrapError(container.KindOverlay, "CARR-COL-004",
			"read search output", err)
	}
	b, err := os.ReadFile(out2)
	if err != nil {
		return Pair{}, container.WrapError(container.KindOverlay, "CARR-COL-004",
			"read search output", err)
	}

	padded := PadToBlock(prefix)
	if len(a) <= len(padded) || !bytes.HasPrefix(a, padded) || !bytes.HasPrefix(b, padded) {
		return Pair{}, container.NewError(container.KindOverlay, "CARR-COL-005",
			"search outputs do not extend the padded prefix")
	}
	return NewPair(a[len(padded):], b[len(padded):])
}
