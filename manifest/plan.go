package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"xcoll.dev/carrier/container"
	"xcoll.dev/carrier/locator"
)

// PairPaths names one file per side of the pair.
type PairPaths struct {
	A string `yaml:"a"`
	B string `yaml:"b"`
}

// PrefixLens carries the per-side prefix byte counts. The overlay
// stage rejects pairs whose prefixes do not land the blocks on the
// same absolute offset, so unequal values here only make sense with
// templates whose regions start at different offsets.
type PrefixLens struct {
	A int `yaml:"a"`
	B int `yaml:"b"`
}

// MarkerSpec is the YAML shape of a locator marker.
type MarkerSpec struct {
	OID        string `yaml:"oid,omitempty"`
	Tag        string `yaml:"tag,omitempty"`
	JPEGMarker string `yaml:"jpeg_marker,omitempty"`
	Occurrence int    `yaml:"occurrence,omitempty"`
	StreamDict string `yaml:"stream_dict,omitempty"`
}

// ToMarker compiles the YAML marker fields into a locator marker.
func (s MarkerSpec) ToMarker() (locator.Marker, error) {
	var m locator.Marker
	if s.OID != "" {
		oid, err := locator.EncodeOID(s.OID)
		if err != nil {
			return locator.Marker{}, err
		}
		m.OID = oid
	}
	if s.Tag != "" {
		v, err := strconv.ParseUint(s.Tag, 0, 8)
		if err != nil {
			return locator.Marker{}, container.WrapError(container.KindFormat,
				"CARR-MAN-012", "malformed marker tag "+s.Tag, err)
		}
		m.Tag = byte(v)
	}
	if s.JPEGMarker != "" {
		v, err := strconv.ParseUint(s.JPEGMarker, 0, 8)
		if err != nil {
			return locator.Marker{}, container.WrapError(container.KindFormat,
				"CARR-MAN-012", "malformed JPEG marker "+s.JPEGMarker, err)
		}
		m.JPEGMarker = byte(v)
	}
	m.Occurrence = s.Occurrence
	m.StreamDict = s.StreamDict
	return m, nil
}

// Plan is one end-to-end carrier build: templates in, overlaid and
// repaired pair out, optionally with a manifest written next to the
// outputs. All paths are relative to the plan file's directory.
type Plan struct {
	Format    string     `yaml:"format"`
	Technique string     `yaml:"technique,omitempty"`
	Templates PairPaths  `yaml:"templates"`
	Marker    MarkerSpec `yaml:"marker,omitempty"`
	PrefixLen PrefixLens `yaml:"prefix_len"`
	Blocks    PairPaths  `yaml:"blocks"`
	Outputs   PairPaths  `yaml:"outputs"`
	Manifest  string     `yaml:"manifest,omitempty"`

	dir string
}

// LoadPlan parses and validates a YAML build plan.
func LoadPlan(path string) (*Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, container.WrapError(container.KindFormat, "CARR-MAN-010",
			"read plan "+path, err)
	}
	var p Plan
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, container.WrapError(container.KindFormat, "CARR-MAN-011",
			"parse plan "+path, err)
	}
	if _, err := container.ParseFormat(p.Format); err != nil {
		return nil, err
	}
	for name, pp := range map[string]PairPaths{
		"templates": p.Templates,
		"blocks":    p.Blocks,
		"outputs":   p.Outputs,
	} {
		if pp.A == "" || pp.B == "" {
			return nil, container.NewError(container.KindFormat, "CARR-MAN-012",
				fmt.Sprintf("plan %s: %s must name both sides of the pair", path, name))
		}
	}
	p.dir = filepath.Dir(path)
	return &p, nil
}

// Resolve turns a plan-relative path into one usable from the current
// directory.
func (p *Plan) Resolve(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.dir, rel)
}
