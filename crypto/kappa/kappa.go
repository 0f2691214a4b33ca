// Package kappa computes, outside of any circuit, the hop secret derived
// from a pairing: kappa = e([a]g, h0), and its MiMC digest hk over the 12
// base field coefficients of kappa (each reduced into the scalar field) plus
// the domain tag as a 13th element.
//
// The witness-derivation circuit implements the same computation with
// emulated arithmetic; the two must agree bit for bit.
package kappa

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/mimc"
	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/types"
)

// NbElements is the number of MiMC inputs: 12 coefficients and the tag.
const NbElements = 13

// Kappa returns e([a]g, h0). The scalar must be non-zero mod r.
func Kappa(a *big.Int) (bls12381.GT, error) {
	a = bls12381.ReduceScalar(a)
	if a.Sign() == 0 {
		return bls12381.GT{}, types.ErrInvalidScalar.With("a must be non-zero")
	}
	return bls12381.Pair([]bls12381.G1{bls12381.G1BaseMul(a)}, []bls12381.G2{bls12381.H0()})
}

// TagElement returns the domain tag read as a big-endian integer.
func TagElement() fr.Element {
	var tag fr.Element
	tag.SetBytes([]byte(types.KappaTag))
	return tag
}

// Elements returns the MiMC inputs for k.
func Elements(k *bls12381.GT) []fr.Element {
	elements := make([]fr.Element, 0, NbElements)
	for _, c := range bls12381.GTCoefficients(k) {
		var e fr.Element
		e.SetBigInt(c)
		elements = append(elements, e)
	}
	return append(elements, TagElement())
}

// Digest returns hk for an arbitrary GT element, as used by the hop
// decryption where k is recovered as a quotient of pairings.
func Digest(k *bls12381.GT) *big.Int {
	h := mimc.NewMiMC()
	for _, e := range Elements(k) {
		b := e.Marshal()
		h.Write(b)
	}
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out.BigInt(new(big.Int))
}

// HK returns the digest of e([a]g, h0).
func HK(a *big.Int) (*big.Int, error) {
	k, err := Kappa(a)
	if err != nil {
		return nil, err
	}
	return Digest(&k), nil
}

// Bytes encodes a digest as 32 big-endian bytes.
func Bytes(hk *big.Int) []byte {
	return bls12381.ScalarBytes(hk)
}
