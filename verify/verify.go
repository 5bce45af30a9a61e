// Package verify checks that two carrier artifacts form a working
// MD5 collision pair and that each copy is still structurally valid
// for its container format.
//
// Verification is evidence-first: Verify always builds as much of the
// Report as it can before deciding success or failure, so callers can
// render the hashes and structural findings even for a broken pair.
package verify

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"xcoll.dev/carrier/cidutil"
	"xcoll.dev/carrier/container"
)

// Artifact is one side of a collision pair under verification.
type Artifact struct {
	Name string
	Data []byte
}

// ArtifactSummary records the identity of one artifact as seen by the
// verifier. MD5 is hex of the multihash-wrapped digest, SHA256 is the
// plain hex digest, CID is the CIDv1 raw sha2-256 content identifier.
type ArtifactSummary struct {
	Name   string `json:"name"`
	Size   int    `json:"size"`
	MD5    string `json:"md5"`
	SHA256 string `json:"sha256"`
	CID    string `json:"cid"`
}

// Report is the full verification result for one artifact pair.
type Report struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`

	Format container.Format `json:"format"`

	A ArtifactSummary `json:"a"`
	B ArtifactSummary `json:"b"`

	MD5Equal     bool `json:"md5_equal"`
	SHA256Differ bool `json:"sha256_differ"`

	// FirstDiff is the offset of the first differing byte, or -1 when
	// the artifacts are byte-identical. SuffixStart is the first offset
	// from which the two artifacts agree to the end.
	FirstDiff   int `json:"first_diff"`
	SuffixStart int `json:"suffix_start"`

	JPEG *JPEGChecks `json:"jpeg,omitempty"`
	PDF  *PDFChecks  `json:"pdf,omitempty"`
	Gzip *GzipChecks `json:"gzip,omitempty"`
}

// OK reports whether the pair verified as a live collision: equal MD5,
// differing bytes, and no structural failure in either copy.
func (r *Report) OK() bool {
	return r.MD5Equal && r.SHA256Differ && r.structuresOK()
}

func (r *Report) structuresOK() bool {
	if r.JPEG != nil && !r.JPEG.OK() {
		return false
	}
	if r.PDF != nil && !r.PDF.OK() {
		return false
	}
	return true
}

// JSON renders the report for archival and attestation.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

func summarize(a Artifact) ArtifactSummary {
	sha := sha256.Sum256(a.Data)
	return ArtifactSummary{
		Name:   a.Name,
		Size:   len(a.Data),
		MD5:    cidutil.WeakMultihash(a.Data),
		SHA256: hex.EncodeToString(sha[:]),
		CID:    cidutil.CIDv1RawSHA256(a.Data),
	}
}

// Verify checks the pair (a, b) as format carriers. A non-nil Report is
// returned alongside any verification error so the caller can still
// show the evidence gathered before the failure.
func Verify(format container.Format, a, b Artifact) (*Report, error) {
	r := &Report{
		RunID:     uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Format:    format,
		A:         summarize(a),
		B:         summarize(b),
	}

	md5A := md5.Sum(a.Data)
	md5B := md5.Sum(b.Data)
	r.MD5Equal = md5A == md5B
	r.SHA256Differ = r.A.SHA256 != r.B.SHA256
	r.FirstDiff = FirstDiff(a.Data, b.Data)
	r.SuffixStart = CommonSuffixStart(a.Data, b.Data)

	switch format {
	case container.FormatJPEG:
		r.JPEG = checkJPEG(a.Data, b.Data)
	case container.FormatPDF:
		r.PDF = checkPDF(a.Data, b.Data)
	case container.FormatGzip:
		r.Gzip = checkGzip(a.Data, b.Data)
	}

	if !r.MD5Equal {
		return r, container.NewError(container.KindVerification, "CARR-VRF-001",
			"collision broken: artifact MD5 digests differ")
	}
	if r.FirstDiff < 0 {
		return r, container.NewError(container.KindVerification, "CARR-VRF-002",
			"artifacts are byte-identical, not a collision pair")
	}
	return r, nil
}

// FirstDiff returns the offset of the first byte where a and b differ,
// or -1 when they are equal. A length difference past the shorter
// input counts as a difference at that length.
func FirstDiff(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}

// CommonSuffixStart returns the smallest offset s such that a[s:] and
// b[s:] are identical. For equal inputs this is 0; for inputs of
// different length it is len, since no aligned common suffix exists.
func CommonSuffixStart(a, b []byte) int {
	if len(a) != len(b) {
		return len(a)
	}
	s := len(a)
	for s > 0 && a[s-1] == b[s-1] {
		s--
	}
	return s
}
