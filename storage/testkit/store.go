// Package testkit holds the conformance suite every Store
// implementation must pass.
package testkit

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"

	"xcoll.dev/carrier/cidutil"
	"xcoll.dev/carrier/storage"
)

// NewStore constructs a fresh, empty Store instance for a test.
// The returned Store MUST be isolated from other tests.
type NewStore func(t *testing.T) storage.Store

func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := []byte("archived carrier artifact")

		id, err := s.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		wantID, err := cidutil.CIDv1RawSHA256CID(want)
		if err != nil {
			t.Fatalf("CIDv1RawSHA256CID failed: %v", err)
		}
		if id != wantID {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := s.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		s := newStore(t)
		b := []byte("same bytes")

		id1, err := s.Put(b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := s.Put(b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		s := newStore(t)
		b := []byte("missing")
		id, err := cidutil.CIDv1RawSHA256CID(b)
		if err != nil {
			t.Fatalf("CIDv1RawSHA256CID failed: %v", err)
		}

		if s.Has(id) {
			t.Fatalf("Has returned true for missing CID")
		}
		if _, err := s.Get(id); !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		if _, err := s.Put(b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !s.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		s := newStore(t)
		var undef cid.Cid
		if s.Has(undef) {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := s.Get(undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})

	t.Run("DistinctArtifactsKeepDistinctKeys", func(t *testing.T) {
		// The point of a strong-hash-keyed archive: two sides of a pair
		// never collapse to one key even when their MD5 agrees.
		s := newStore(t)
		idA, err := s.Put([]byte("artifact copy A"))
		if err != nil {
			t.Fatalf("Put A failed: %v", err)
		}
		idB, err := s.Put([]byte("artifact copy B"))
		if err != nil {
			t.Fatalf("Put B failed: %v", err)
		}
		if idA == idB {
			t.Fatalf("distinct artifacts share a key")
		}
	})
}
