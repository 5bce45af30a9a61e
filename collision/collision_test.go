package collision

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"xcoll.dev/carrier/container"
)

func TestNewPair(t *testing.T) {
	a := []byte{1, 2, 3, 4}
	b := []byte{1, 2, 3, 5}
	p, err := NewPair(a, b)
	if err != nil {
		t.Fatalf("NewPair: %v", err)
	}
	if p.Len() != 4 {
		t.Fatalf("Len: got %d", p.Len())
	}
	a[0] = 9
	if p.A[0] != 1 {
		t.Fatal("pair aliases caller's block")
	}

	if _, err := NewPair([]byte{1}, []byte{1, 2}); container.RuleID(err) != "CARR-COL-002" {
		t.Fatalf("length mismatch: got %v", err)
	}
	if _, err := NewPair(nil, nil); container.RuleID(err) != "CARR-COL-002" {
		t.Fatalf("empty blocks: got %v", err)
	}
	if _, err := NewPair([]byte{7}, []byte{7}); container.RuleID(err) != "CARR-COL-003" {
		t.Fatalf("identical blocks: got %v", err)
	}
}

func TestLoadPair(t *testing.T) {
	dir := t.TempDir()
	pa := filepath.Join(dir, "a.bin")
	pb := filepath.Join(dir, "b.bin")
	if err := os.WriteFile(pa, []byte("blockA"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pb, []byte("blockB"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadPair(pa, pb)
	if err != nil {
		t.Fatalf("LoadPair: %v", err)
	}
	if !bytes.Equal(p.A, []byte("blockA")) {
		t.Fatalf("A: %q", p.A)
	}
	if _, err := LoadPair(filepath.Join(dir, "missing"), pb); container.RuleID(err) != "CARR-COL-001" {
		t.Fatalf("missing file: got %v", err)
	}
}

func TestPadToBlock(t *testing.T) {
	if got := PadToBlock(make([]byte, 64)); len(got) != 64 {
		t.Fatalf("aligned input padded to %d", len(got))
	}
	in := []byte("21 bytes of prefix...")
	got := PadToBlock(in)
	if len(got) != 64 {
		t.Fatalf("padded length: got %d want 64", len(got))
	}
	if !bytes.HasPrefix(got, in) {
		t.Fatal("padding altered the data")
	}
	for _, v := range got[len(in):] {
		if v != 0 {
			t.Fatal("padding is not zero")
		}
	}
}

func TestStaticSource(t *testing.T) {
	p, err := NewPair([]byte{1, 0}, []byte{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	got, err := StaticSource{Pair: p}.Generate(context.Background(), []byte("ignored"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.Equal(got.A, p.A) || !bytes.Equal(got.B, p.B) {
		t.Fatal("static source returned a different pair")
	}
}

func TestExecSource_MissingBinary(t *testing.T) {
	_, err := ExecSource{Binary: filepath.Join(t.TempDir(), "nope")}.
		Generate(context.Background(), []byte("prefix"))
	if container.RuleID(err) != "CARR-COL-004" {
		t.Fatalf("missing binary: got %v", err)
	}
}
