// Package schnorr implements the non-interactive proof of knowledge of the
// secret behind a register:
//
//	a = [rho]g
//	c = H(tag || g || a || u)
//	z = rho + c*sk mod r
//
// and the verifier accepts when [z]g == a + [c]u.
package schnorr

import (
	"math/big"

	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/crypto/hash/transcript"
	"github.com/logical-mechanism/peace-protocol/register"
	"github.com/logical-mechanism/peace-protocol/types"
)

// Proof is a Schnorr transcript (a, z).
type Proof struct {
	Commitment bls12381.G1    `json:"commitment" cbor:"0,keyasint"`
	Response   *types.BigInt `json:"response" cbor:"1,keyasint"`
}

// Challenge returns H(tag || g || a || u) mod r.
func Challenge(reg register.Register, commitment bls12381.G1) *big.Int {
	return transcript.New(types.SchnorrTag).G1(reg.Generator, commitment, reg.Public).Scalar()
}

// Prove builds a proof for the identity.
func Prove(id *register.Identity) (*Proof, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	rho, err := bls12381.RandomScalar()
	if err != nil {
		return nil, err
	}
	commitment := id.Generator.Mul(rho)
	return &Proof{
		Commitment: commitment,
		Response:   (*types.BigInt)(respond(rho, Challenge(id.Register, commitment), id.Secret)),
	}, nil
}

// respond computes rho + c*sk mod r.
func respond(rho, c, sk *big.Int) *big.Int {
	z := new(big.Int).Mul(c, sk)
	z.Add(z, rho)
	return z.Mod(z, bls12381.Order())
}

// Verify checks the proof against the register.
func Verify(reg register.Register, proof *Proof) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	if proof == nil || proof.Response == nil {
		return types.ErrMalformedEncoding.With("incomplete schnorr proof")
	}
	c := Challenge(reg, proof.Commitment)
	lhs := reg.Generator.Mul(proof.Response.MathBigInt())
	rhs := proof.Commitment.Add(reg.Public.Mul(c))
	if !lhs.Equal(rhs) {
		return types.ErrProofVerification.With("schnorr equation does not hold")
	}
	return nil
}
