package repair

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"xcoll.dev/carrier/container"
	"xcoll.dev/carrier/internal/execout"
)

// Normalizer is the narrow seam for the external structural-normalization
// collaborator (object renumbering, garbage collection, page flattening).
// The pipeline itself only ever calls Normalize; everything else about the
// tool stays behind this interface so tests can run with Passthrough.
type Normalizer interface {
	Normalize(ctx context.Context, data []byte) ([]byte, error)
}

// Merger extends Normalizer with document merging. Mutool implements
// both; the dual-catalog build depends on this seam rather than on the
// binary directly.
type Merger interface {
	Normalizer
	Merge(ctx context.Context, inputs ...[]byte) ([]byte, error)
}

// Passthrough is the no-op Normalizer used for self-contained formats and
// in tests.
type Passthrough struct{}

func (Passthrough) Normalize(_ context.Context, data []byte) ([]byte, error) {
	return data, nil
}

// Mutool shells out to the mupdf "mutool" binary for PDF normalization and
// merging. Timeout and cancellation belong to the caller's context.
type Mutool struct {
	// Binary is the executable to run; PickMutool finds a default.
	Binary string
}

// PickMutool returns a Mutool bound to whichever of "mutool"/"mutool.exe"
// is on PATH, falling back to "mutool" so the eventual exec error names the
// missing binary clearly.
func PickMutool() Mutool {
	for _, cand := range []string{"mutool", "mutool.exe"} {
		if _, err := exec.LookPath(cand); err == nil {
			return Mutool{Binary: cand}
		}
	}
	return Mutool{Binary: "mutool"}
}

// Normalize runs "mutool clean -gggg" over the carrier bytes.
func (m Mutool) Normalize(ctx context.Context, data []byte) ([]byte, error) {
	return m.run(ctx, data, func(in, out string) []string {
		return []string{"clean", "-gggg", in, out}
	})
}

// Merge flattens one or more PDFs into a single document via
// "mutool merge". Inputs are merged in argument order.
func (m Mutool) Merge(ctx context.Context, inputs ...[]byte) ([]byte, error) {
	if len(inputs) == 0 {
		return nil, container.NewError(container.KindRepair,
			"CARR-REP-005", "merge requires at least one input")
	}
	dir, err := os.MkdirTemp("", "carrier-mutool-")
	if err != nil {
		return nil, container.WrapError(container.KindRepair,
			"CARR-REP-005", "create scratch dir", err)
	}
	defer os.RemoveAll(dir)

	args := []string{"merge", "-o", filepath.Join(dir, "out.pdf")}
	for i, in := range inputs {
		p := filepath.Join(dir, fmt.Sprintf("in%d.pdf", i))
		if err := os.WriteFile(p, in, 0o644); err != nil {
			return nil, container.WrapError(container.KindRepair,
				"CARR-REP-005", "write scratch input", err)
		}
		args = append(args, p)
	}
	if out, err := exec.CommandContext(ctx, m.Binary, args...).CombinedOutput(); err != nil {
		return nil, container.WrapError(container.KindRepair, "CARR-REP-005",
			fmt.Sprintf("%s merge failed: %s", m.Binary, execout.FirstLine(out)), err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "out.pdf"))
	if err != nil {
		return nil, container.WrapError(container.KindRepair,
			"CARR-REP-005", "read merge output", err)
	}
	return b, nil
}

func (m Mutool) run(ctx context.Context, data []byte, argv func(in, out string) []string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "carrier-mutool-")
	if err != nil {
		return nil, container.WrapError(container.KindRepair,
			"CARR-REP-005", "create scratch dir", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	if err := os.WriteFile(in, data, 0o644); err != nil {
		return nil, container.WrapError(container.KindRepair,
			"CARR-REP-005", "write scratch input", err)
	}
	if msg, err := exec.CommandContext(ctx, m.Binary, argv(in, out)...).CombinedOutput(); err != nil {
		return nil, container.WrapError(container.KindRepair, "CARR-REP-005",
			fmt.Sprintf("%s failed: %s", m.Binary, execout.FirstLine(msg)), err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		return nil, container.WrapError(container.KindRepair,
			"CARR-REP-005", "read normalizer output", err)
	}
	return b, nil
}
