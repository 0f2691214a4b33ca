// Package binding implements the conjunctive proof that a level point pair
// was built from committed secrets (a, r) for a named recipient and asset:
//
//	point1 = [r]g
//	point2 = [a]g + [r]recipient
//
// The challenge covers the asset identifier, so a proof minted for one asset
// cannot be replayed on another.
package binding

import (
	"math/big"

	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/crypto/hash/transcript"
	"github.com/logical-mechanism/peace-protocol/register"
	"github.com/logical-mechanism/peace-protocol/types"
)

// Statement is the public part of a binding proof.
type Statement struct {
	Recipient register.Register
	Point1    bls12381.G1
	Point2    bls12381.G1
	AssetID   []byte
}

// Proof is the transcript (t1, t2, z_a, z_r).
type Proof struct {
	T1 bls12381.G1    `json:"t1" cbor:"0,keyasint"`
	T2 bls12381.G1    `json:"t2" cbor:"1,keyasint"`
	ZA *types.BigInt `json:"za" cbor:"2,keyasint"`
	ZR *types.BigInt `json:"zr" cbor:"3,keyasint"`
}

// Challenge returns H(tag || g || recipient || t1 || t2 || point1 || point2 || assetId).
func (st Statement) Challenge(t1, t2 bls12381.G1) *big.Int {
	return transcript.New(types.BindingTag).
		G1(st.Recipient.Generator, st.Recipient.Public, t1, t2, st.Point1, st.Point2).
		Bytes(st.AssetID).
		Scalar()
}

// NewStatement derives point1 and point2 from the secrets.
func NewStatement(recipient register.Register, a, r *big.Int, assetID []byte) Statement {
	g := recipient.Generator
	return Statement{
		Recipient: recipient,
		Point1:    g.Mul(r),
		Point2:    g.Mul(a).Add(recipient.Public.Mul(r)),
		AssetID:   assetID,
	}
}

// Prove builds a binding proof of (a, r) for the statement. It does not
// check that the statement was built from these secrets; a mismatched
// statement yields a proof that fails verification.
func Prove(st Statement, a, r *big.Int) (*Proof, error) {
	if err := st.Recipient.Validate(); err != nil {
		return nil, err
	}
	alpha, err := bls12381.RandomScalar()
	if err != nil {
		return nil, err
	}
	rho, err := bls12381.RandomScalar()
	if err != nil {
		return nil, err
	}
	g := st.Recipient.Generator
	t1 := g.Mul(rho)
	t2 := g.Mul(alpha).Add(st.Recipient.Public.Mul(rho))
	c := st.Challenge(t1, t2)

	order := bls12381.Order()
	za := new(big.Int).Mul(c, a)
	za.Add(za, alpha).Mod(za, order)
	zr := new(big.Int).Mul(c, r)
	zr.Add(zr, rho).Mod(zr, order)

	return &Proof{T1: t1, T2: t2, ZA: (*types.BigInt)(za), ZR: (*types.BigInt)(zr)}, nil
}

// Verify checks [z_r]g == t1 + [c]point1 and
// [z_a]g + [z_r]recipient == t2 + [c]point2.
func Verify(st Statement, proof *Proof) error {
	if err := st.Recipient.Validate(); err != nil {
		return err
	}
	if proof == nil || proof.ZA == nil || proof.ZR == nil {
		return types.ErrMalformedEncoding.With("incomplete binding proof")
	}
	g := st.Recipient.Generator
	c := st.Challenge(proof.T1, proof.T2)
	za, zr := proof.ZA.MathBigInt(), proof.ZR.MathBigInt()

	if !g.Mul(zr).Equal(proof.T1.Add(st.Point1.Mul(c))) {
		return types.ErrProofVerification.With("binding: point1 equation does not hold")
	}
	lhs := g.Mul(za).Add(st.Recipient.Public.Mul(zr))
	if !lhs.Equal(proof.T2.Add(st.Point2.Mul(c))) {
		return types.ErrProofVerification.With("binding: point2 equation does not hold")
	}
	return nil
}
