// Package manifest reads and writes the inputs the batch tooling runs
// on: the JSON manifest naming a finished artifact pair, and the YAML
// plan describing how to produce one.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"xcoll.dev/carrier/container"
)

// Manifest names one finished collision pair. Artifact paths are
// relative to the manifest file's directory.
type Manifest struct {
	Technique string   `json:"technique"`
	Language  string   `json:"language"`
	Artifacts []string `json:"artifacts"`

	dir string
}

// Load parses a manifest file. At least two artifacts are required.
func Load(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, container.WrapError(container.KindFormat, "CARR-MAN-001",
			"read manifest "+path, err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, container.WrapError(container.KindFormat, "CARR-MAN-002",
			"parse manifest "+path, err)
	}
	if len(m.Artifacts) < 2 {
		return nil, container.NewError(container.KindFormat, "CARR-MAN-003",
			fmt.Sprintf("manifest %s lists %d artifacts, need at least 2", path, len(m.Artifacts)))
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// Pair returns the resolved paths of the first two artifacts.
func (m *Manifest) Pair() (a, b string) {
	return filepath.Join(m.dir, m.Artifacts[0]), filepath.Join(m.dir, m.Artifacts[1])
}

// Save writes the manifest next to its artifacts.
func (m *Manifest) Save(path string) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return container.WrapError(container.KindFormat, "CARR-MAN-002",
			"encode manifest", err)
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return container.WrapError(container.KindFormat, "CARR-MAN-001",
			"write manifest "+path, err)
	}
	return nil
}
