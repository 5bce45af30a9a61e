// Package storage archives collision evidence content-addressed: the
// final artifact pairs and the verification reports that prove them.
// Keying strictly by CIDv1(raw, sha2-256) is deliberate: two artifacts
// with the same MD5 still get distinct keys, so the archive can hold
// both sides of a pair that a weak-hash-keyed store would conflate.
package storage

import "github.com/ipfs/go-cid"

// Store is a minimal content-addressable blob store.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written.
// - Get MUST return ErrNotFound when the CID is absent.
type Store interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}
