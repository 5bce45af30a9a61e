package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"xcoll.dev/carrier/container"
	"xcoll.dev/carrier/locator"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "manifest.json", `{
  "technique": "chosen-prefix",
  "language": "go",
  "artifacts": ["out/a.der", "out/b.der"]
}`)

	m, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Technique != "chosen-prefix" || m.Language != "go" {
		t.Fatalf("fields: %+v", m)
	}
	a, b := m.Pair()
	if a != filepath.Join(dir, "out", "a.der") || b != filepath.Join(dir, "out", "b.der") {
		t.Fatalf("pair resolution: %q %q", a, b)
	}
}

func TestLoadManifest_Rejections(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "absent.json")); container.RuleID(err) != "CARR-MAN-001" {
		t.Fatalf("missing file: got %v", err)
	}
	p := writeFile(t, dir, "bad.json", "{")
	if _, err := Load(p); container.RuleID(err) != "CARR-MAN-002" {
		t.Fatalf("malformed JSON: got %v", err)
	}
	p = writeFile(t, dir, "one.json", `{"technique":"t","artifacts":["only.bin"]}`)
	if _, err := Load(p); container.RuleID(err) != "CARR-MAN-003" {
		t.Fatalf("single artifact: got %v", err)
	}
}

func TestManifestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := &Manifest{Technique: "identical-prefix", Language: "go", Artifacts: []string{"a.pdf", "b.pdf"}}
	p := filepath.Join(dir, "manifest.json")
	if err := m.Save(p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Technique != m.Technique || len(got.Artifacts) != 2 {
		t.Fatalf("round trip: %+v", got)
	}
}

func TestLoadPlan(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "plan.yaml", `
format: jpeg
technique: identical-prefix
templates:
  a: tpl/a.jpg
  b: tpl/b.jpg
marker:
  jpeg_marker: "0xFE"
  occurrence: 2
prefix_len:
  a: 21
  b: 21
blocks:
  a: blocks/sa.bin
  b: blocks/sb.bin
outputs:
  a: out/a.jpg
  b: out/b.jpg
manifest: out/manifest.json
`)

	plan, err := LoadPlan(p)
	if err != nil {
		t.Fatalf("LoadPlan: %v", err)
	}
	if plan.Format != "jpeg" || plan.PrefixLen.A != 21 {
		t.Fatalf("fields: %+v", plan)
	}
	if got := plan.Resolve(plan.Outputs.A); got != filepath.Join(dir, "out", "a.jpg") {
		t.Fatalf("Resolve: %q", got)
	}

	m, err := plan.Marker.ToMarker()
	if err != nil {
		t.Fatalf("ToMarker: %v", err)
	}
	if m.JPEGMarker != locator.MarkerCOM || m.Occurrence != 2 {
		t.Fatalf("marker: %+v", m)
	}
}

func TestLoadPlan_Rejections(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "plan.yaml", `
format: cabinet
templates: {a: a, b: b}
blocks: {a: a, b: b}
outputs: {a: a, b: b}
`)
	if _, err := LoadPlan(p); container.RuleID(err) != "CARR-CNT-003" {
		t.Fatalf("unknown format: got %v", err)
	}

	p = writeFile(t, dir, "nopair.yaml", `
format: pdf
templates: {a: a.pdf}
blocks: {a: a, b: b}
outputs: {a: a, b: b}
`)
	if _, err := LoadPlan(p); container.RuleID(err) != "CARR-MAN-012" {
		t.Fatalf("half a pair: got %v", err)
	}
}

func TestMarkerSpec_OIDAndTag(t *testing.T) {
	m, err := MarkerSpec{OID: "1.2.3.4.5.6.7.8", Tag: "0x04"}.ToMarker()
	if err != nil {
		t.Fatalf("ToMarker: %v", err)
	}
	want, _ := locator.EncodeOID("1.2.3.4.5.6.7.8")
	if string(m.OID) != string(want) || m.Tag != 0x04 {
		t.Fatalf("marker: %+v", m)
	}
	if _, err := (MarkerSpec{Tag: "banana"}).ToMarker(); container.RuleID(err) != "CARR-MAN-012" {
		t.Fatalf("bad tag: got %v", err)
	}
}
