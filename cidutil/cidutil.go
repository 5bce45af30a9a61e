// Package cidutil derives content identifiers for final artifacts. Two
// colliding artifacts share an MD5 multihash but never a CID: the CID is
// the strong, content-addressed identity used by the archive, while the
// MD5 multihash exists only to exhibit the collision.
package cidutil

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CIDv1RawSHA256 returns a CIDv1 string using the "raw" multicodec and a
// sha2-256 multihash.
func CIDv1RawSHA256(data []byte) string {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum only errors for invalid inputs; with SHA2_256 and
		// default length this is unreachable.
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}

// CIDv1RawSHA256CID returns the CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// WeakMultihash returns the hex form of an MD5 multihash over data. The
// digest comes from the standard library; only the self-describing wrapper
// is produced here. MD5 is the deliberately broken primitive this toolkit
// targets; never use this value as an identity.
func WeakMultihash(data []byte) string {
	sum := md5.Sum(data)
	mh, err := multihash.Encode(sum[:], multihash.MD5)
	if err != nil {
		return ""
	}
	return hex.EncodeToString(mh)
}
