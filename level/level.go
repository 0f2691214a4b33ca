// Package level models the re-encryption levels of an asset and the pairing
// identity that ties their points to one random scalar:
//
//	e(g, r4) == e(r1, [a']h_a + [b']h_b (+ h_c for the entry level))
//
// with a' = H(r1) and b' = H(r1 || r2 || assetId).
package level

import (
	"fmt"
	"math/big"

	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/crypto/hash/transcript"
	"github.com/logical-mechanism/peace-protocol/register"
	"github.com/logical-mechanism/peace-protocol/types"
)

// Kind selects the consistency equation. The two kinds are never
// interchangeable.
type Kind int

const (
	// Entry is the first level of an asset, bound to its owner.
	Entry Kind = iota
	// Hop is every level produced by a re-encryption.
	Hop
)

func (k Kind) String() string {
	switch k {
	case Entry:
		return "entry"
	case Hop:
		return "hop"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// HalfLevel is the state of the newest level of an asset.
type HalfLevel struct {
	R1 bls12381.G1 `json:"r1" cbor:"0,keyasint"`
	R2 bls12381.G1 `json:"r2" cbor:"1,keyasint"`
	R4 bls12381.G2 `json:"r4" cbor:"2,keyasint"`
}

// FullLevel is a level completed by the decryption witness disclosed at the
// following hop.
type FullLevel struct {
	R1   bls12381.G1 `json:"r1" cbor:"0,keyasint"`
	R2G1 bls12381.G1 `json:"r2g1" cbor:"1,keyasint"`
	R2G2 bls12381.G2 `json:"r2g2" cbor:"2,keyasint"`
	R4   bls12381.G2 `json:"r4" cbor:"3,keyasint"`
}

// Complete returns the full level carrying the witness r5.
func (h HalfLevel) Complete(r5 bls12381.G2) FullLevel {
	return FullLevel{R1: h.R1, R2G1: h.R2, R2G2: r5, R4: h.R4}
}

// Half drops the G2 component of r2.
func (f FullLevel) Half() HalfLevel {
	return HalfLevel{R1: f.R1, R2: f.R2G1, R4: f.R4}
}

// Exponents returns a' = H(tag || r1) and b' = H(tag || r1 || r2 || assetId).
func Exponents(r1, r2 bls12381.G1, assetID []byte) (*big.Int, *big.Int) {
	a := transcript.New(types.HashToScalarTag).G1(r1).Scalar()
	b := transcript.New(types.HashToScalarTag).G1(r1, r2).Bytes(assetID).Scalar()
	return a, b
}

// Base returns [a']h_a + [b']h_b, plus h_c for the entry kind.
func Base(kind Kind, r1, r2 bls12381.G1, assetID []byte) bls12381.G2 {
	a, b := Exponents(r1, r2, assetID)
	base := bls12381.HA().Mul(a).Add(bls12381.HB().Mul(b))
	if kind == Entry {
		base = base.Add(bls12381.HC())
	}
	return base
}

// New builds the half level of secrets (a, r) for recipient:
//
//	r1 = [r]g, r2 = [a]g + [r]recipient, r4 = [r]Base(kind, r1, r2)
//
// An entry level uses the owner's own register as recipient, which makes
// r2 = [a + r*sk]g.
func New(kind Kind, a, r *big.Int, recipient register.Register, assetID []byte) (HalfLevel, error) {
	if kind != Entry && kind != Hop {
		return HalfLevel{}, types.ErrInvalidArgument.Withf("unknown level kind %d", int(kind))
	}
	if err := recipient.Validate(); err != nil {
		return HalfLevel{}, err
	}
	g := recipient.Generator
	r1 := g.Mul(r)
	r2 := g.Mul(a).Add(recipient.Public.Mul(r))
	return HalfLevel{
		R1: r1,
		R2: r2,
		R4: Base(kind, r1, r2, assetID).Mul(r),
	}, nil
}

// Check verifies the consistency equation of the given kind.
func Check(kind Kind, h HalfLevel, assetID []byte) error {
	if kind != Entry && kind != Hop {
		return types.ErrInvalidArgument.Withf("unknown level kind %d", int(kind))
	}
	if h.R1.IsInfinity() {
		return types.ErrProofVerification.With("level r1 is the identity")
	}
	base := Base(kind, h.R1, h.R2, assetID)
	ok, err := bls12381.PairingCheck(
		[]bls12381.G1{bls12381.G1Generator(), h.R1.Neg()},
		[]bls12381.G2{h.R4, base},
	)
	if err != nil {
		return types.ErrProofVerification.WithErr(err)
	}
	if !ok {
		return types.ErrProofVerification.Withf("%s level consistency check failed", kind)
	}
	return nil
}
