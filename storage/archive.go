package storage

import "github.com/ipfs/go-cid"

// PairRecord names the archived blobs of one collision pair. Report
// is cid.Undef when the pair was archived without one.
type PairRecord struct {
	Technique string
	A         cid.Cid
	B         cid.Cid
	Report    cid.Cid
}

// ArchivePair stores both artifacts and the optional verification
// report. Byte-identical artifacts are rejected up front: they would
// collapse to one CID, and an identical pair is not a collision.
func ArchivePair(s Store, technique string, a, b, report []byte) (PairRecord, error) {
	idA, err := s.Put(a)
	if err != nil {
		return PairRecord{}, err
	}
	idB, err := s.Put(b)
	if err != nil {
		return PairRecord{}, err
	}
	if idA == idB {
		return PairRecord{}, ErrSameArtifact
	}
	rec := PairRecord{Technique: technique, A: idA, B: idB}
	if len(report) > 0 {
		rec.Report, err = s.Put(report)
		if err != nil {
			return PairRecord{}, err
		}
	}
	return rec, nil
}

// FetchPair retrieves both artifacts of an archived record.
func FetchPair(s Store, rec PairRecord) (a, b []byte, err error) {
	if a, err = s.Get(rec.A); err != nil {
		return nil, nil, err
	}
	if b, err = s.Get(rec.B); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
