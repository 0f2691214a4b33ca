// Package reencrypt composes the protocol primitives into the flows of an
// asset: creating its entry level with the sealed payload, re-encrypting it
// to a new holder one hop at a time, and walking the level chain back to
// recover the payload key.
package reencrypt

import (
	"math/big"

	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/register"
	"github.com/logical-mechanism/peace-protocol/types"
)

// Witness is the decryption witness a delegator discloses at a hop:
// R5 = [hk]p - [sk]h0 completes the previous level and W = [hk]g is the
// point the witness-derivation proof speaks about.
type Witness struct {
	R5 bls12381.G2 `json:"r5" cbor:"0,keyasint"`
	W  bls12381.G1 `json:"w" cbor:"1,keyasint"`
}

// NewWitness builds the witness of the delegator secret sk for digest hk.
func NewWitness(sk, hk *big.Int) Witness {
	return Witness{
		R5: bls12381.G2BaseMul(hk).Sub(bls12381.H0().Mul(sk)),
		W:  bls12381.G1BaseMul(hk),
	}
}

// VerifyWitness checks e(g, R5) * e(u, h0) == e(W, p) for the delegator
// register u.
func VerifyWitness(w Witness, delegator register.Register) error {
	if err := delegator.Validate(); err != nil {
		return err
	}
	if w.W.IsInfinity() {
		return types.ErrProofVerification.With("witness point is the identity")
	}
	ok, err := bls12381.PairingCheck(
		[]bls12381.G1{delegator.Generator, delegator.Public, w.W.Neg()},
		[]bls12381.G2{w.R5, bls12381.H0(), bls12381.P()},
	)
	if err != nil {
		return types.ErrProofVerification.WithErr(err)
	}
	if !ok {
		return types.ErrProofVerification.With("decryption witness relation does not hold")
	}
	return nil
}
