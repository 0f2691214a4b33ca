// Package transcript implements the Fiat-Shamir transcripts of the protocol:
// a blake2b-256 digest over a role tag followed by the compressed encodings
// of the items, read as a big-endian integer and reduced mod r.
//
// Items are concatenated without length prefixes. Every transcript in the
// protocol has fixed-length items, with at most one variable-length item
// placed last, so the concatenation is unambiguous.
package transcript

import (
	"hash"
	"math/big"

	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"golang.org/x/crypto/blake2b"
)

// Transcript accumulates the items of one challenge.
type Transcript struct {
	h hash.Hash
}

// New starts a transcript for the given role tag.
func New(tag string) *Transcript {
	h, err := blake2b.New256(nil)
	if err != nil {
		// only fails for oversized keys
		panic(err)
	}
	h.Write([]byte(tag))
	return &Transcript{h: h}
}

// G1 appends compressed G1 points.
func (t *Transcript) G1(points ...bls12381.G1) *Transcript {
	for _, p := range points {
		t.h.Write(p.Bytes())
	}
	return t
}

// G2 appends compressed G2 points.
func (t *Transcript) G2(points ...bls12381.G2) *Transcript {
	for _, p := range points {
		t.h.Write(p.Bytes())
	}
	return t
}

// Bytes appends raw bytes.
func (t *Transcript) Bytes(b []byte) *Transcript {
	t.h.Write(b)
	return t
}

// Sum returns the 32-byte digest.
func (t *Transcript) Sum() []byte {
	return t.h.Sum(nil)
}

// Scalar returns the digest reduced mod r.
func (t *Transcript) Scalar() *big.Int {
	return bls12381.ScalarFromBytes(t.Sum())
}

// Digest hashes tag || items with blake2b-256.
func Digest(tag string, items ...[]byte) []byte {
	t := New(tag)
	for _, it := range items {
		t.Bytes(it)
	}
	return t.Sum()
}

// HashToScalar hashes tag || items and reduces the digest mod r.
func HashToScalar(tag string, items ...[]byte) *big.Int {
	return bls12381.ScalarFromBytes(Digest(tag, items...))
}
