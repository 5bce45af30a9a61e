// Package bundle exports archived collision evidence as a single
// deterministic TAR file and imports it back, validating every blob
// against its CID on both paths.
package bundle

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xcoll.dev/carrier/cidutil"
	"xcoll.dev/carrier/storage"
)

// FormatVersion is the current bundle index schema version.
const FormatVersion = 1

var epoch0 = time.Unix(0, 0).UTC()

// ExportPair writes the evidence bundle for one archived pair: both
// artifacts, the report when present, and an index.json naming which
// CID plays which role.
//
// The bundle bytes are deterministic: entry order is lexicographic and
// TAR headers are normalized. All exported bytes are validated against
// their CIDs before they enter the archive stream.
func ExportPair(w io.Writer, s storage.Store, rec storage.PairRecord) error {
	if s == nil {
		return fmt.Errorf("bundle: nil store")
	}
	if !rec.A.Defined() || !rec.B.Defined() {
		return storage.ErrInvalidCID
	}

	labels := map[string]cid.Cid{
		"artifact-a": rec.A,
		"artifact-b": rec.B,
	}
	if rec.Report.Defined() {
		labels["report"] = rec.Report
	}

	uniq := make(map[string]cid.Cid, len(labels))
	for _, id := range labels {
		uniq[id.String()] = id
	}
	cidStrings := make([]string, 0, len(uniq))
	for str := range uniq {
		cidStrings = append(cidStrings, str)
	}
	sort.Strings(cidStrings)

	tw := tar.NewWriter(w)

	blocks := make([]indexBlock, 0, len(cidStrings))
	for _, str := range cidStrings {
		id := uniq[str]
		b, err := s.Get(id)
		if err != nil {
			_ = tw.Close()
			return err
		}
		got, err := cidutil.CIDv1RawSHA256CID(b)
		if err != nil {
			_ = tw.Close()
			return err
		}
		if got != id {
			_ = tw.Close()
			return storage.ErrCIDMismatch
		}
		if err := writeEntry(tw, "blocks/"+str, b); err != nil {
			_ = tw.Close()
			return err
		}
		blocks = append(blocks, indexBlock{CID: str, Size: len(b)})
	}

	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)
	idxLabels := make([]indexLabel, 0, len(names))
	for _, name := range names {
		idxLabels = append(idxLabels, indexLabel{Name: name, CID: labels[name].String()})
	}

	idx, err := json.Marshal(indexJSON{
		Version:   FormatVersion,
		Technique: rec.Technique,
		CIDCodec:  "raw",
		Multihash: "sha2-256",
		Blocks:    blocks,
		Labels:    idxLabels,
	})
	if err != nil {
		_ = tw.Close()
		return err
	}
	if err := writeEntry(tw, "index.json", append(idx, '\n')); err != nil {
		_ = tw.Close()
		return err
	}
	return tw.Close()
}

// Import reads a bundle and stores every block. Fail-closed: unknown
// entries are an error. It returns the record reassembled from the
// bundle's index, with an undefined Report CID when the bundle had no
// report label.
func Import(r io.Reader, s storage.Store) (storage.PairRecord, error) {
	if s == nil {
		return storage.PairRecord{}, fmt.Errorf("bundle: nil store")
	}

	tr := tar.NewReader(r)
	seen := map[string]struct{}{}
	var idx *indexJSON

	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return storage.PairRecord{}, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return storage.PairRecord{}, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}
		if h.Typeflag != tar.TypeReg {
			return storage.PairRecord{}, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}

		if name == "index.json" {
			raw, err := io.ReadAll(tr)
			if err != nil {
				return storage.PairRecord{}, err
			}
			idx = new(indexJSON)
			if err := json.Unmarshal(raw, idx); err != nil {
				return storage.PairRecord{}, fmt.Errorf("bundle: malformed index: %w", err)
			}
			continue
		}

		if !strings.HasPrefix(name, "blocks/") {
			return storage.PairRecord{}, fmt.Errorf("bundle: unknown entry: %s", name)
		}
		id, derr := cid.Decode(strings.TrimPrefix(name, "blocks/"))
		if derr != nil || !id.Defined() {
			return storage.PairRecord{}, storage.ErrInvalidCID
		}
		if _, ok := seen[id.String()]; ok {
			return storage.PairRecord{}, fmt.Errorf("bundle: duplicate block entry: %s", id)
		}
		seen[id.String()] = struct{}{}

		payload, err := io.ReadAll(tr)
		if err != nil {
			return storage.PairRecord{}, err
		}
		got, err := cidutil.CIDv1RawSHA256CID(payload)
		if err != nil {
			return storage.PairRecord{}, err
		}
		if got != id {
			return storage.PairRecord{}, storage.ErrCIDMismatch
		}
		if putID, err := s.Put(payload); err != nil {
			return storage.PairRecord{}, err
		} else if putID != id {
			return storage.PairRecord{}, storage.ErrCIDMismatch
		}
	}

	if idx == nil {
		return storage.PairRecord{}, fmt.Errorf("bundle: missing index.json")
	}
	rec := storage.PairRecord{Technique: idx.Technique}
	for _, l := range idx.Labels {
		id, err := cid.Decode(l.CID)
		if err != nil || !id.Defined() {
			return storage.PairRecord{}, storage.ErrInvalidCID
		}
		if _, ok := seen[id.String()]; !ok {
			return storage.PairRecord{}, fmt.Errorf("bundle: label %q names a missing block", l.Name)
		}
		switch l.Name {
		case "artifact-a":
			rec.A = id
		case "artifact-b":
			rec.B = id
		case "report":
			rec.Report = id
		default:
			return storage.PairRecord{}, fmt.Errorf("bundle: unknown label: %q", l.Name)
		}
	}
	if !rec.A.Defined() || !rec.B.Defined() {
		return storage.PairRecord{}, fmt.Errorf("bundle: index does not label both artifacts")
	}
	return rec, nil
}

type indexJSON struct {
	Version   int          `json:"version"`
	Technique string       `json:"technique,omitempty"`
	CIDCodec  string       `json:"cidCodec"`
	Multihash string       `json:"multihash"`
	Blocks    []indexBlock `json:"blocks"`
	Labels    []indexLabel `json:"labels,omitempty"`
}

type indexBlock struct {
	CID  string `json:"cid"`
	Size int    `json:"size"`
}

type indexLabel struct {
	Name string `json:"name"`
	CID  string `json:"cid"`
}

func writeEntry(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
