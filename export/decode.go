package export

import (
	"fmt"
	"math/big"

	bls "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/pedersen"
	"github.com/logical-mechanism/peace-protocol/types"
)

// DecodedKey is a verifying key with its points decoded and validated.
type DecodedKey struct {
	NPublic        int
	Alpha          bls.G1Affine
	Beta           bls.G2Affine
	Gamma          bls.G2Affine
	Delta          bls.G2Affine
	IC             []bls.G1Affine
	CommitmentKeys []pedersen.VerifyingKey
	Committed      [][]int
}

// DecodedProof is a proof with its points decoded and validated.
type DecodedProof struct {
	A             bls.G1Affine
	B             bls.G2Affine
	C             bls.G1Affine
	Commitments   []bls.G1Affine
	CommitmentPok bls.G1Affine
}

// DecodeG1 decodes a compressed G1 point, checking subgroup membership.
func DecodeG1(b []byte) (bls.G1Affine, error) {
	var p bls.G1Affine
	if len(b) != bls.SizeOfG1AffineCompressed {
		return p, types.ErrMalformedEncoding.Withf("G1 point is %d bytes", len(b))
	}
	if _, err := p.SetBytes(b); err != nil {
		return p, types.ErrMalformedEncoding.WithErr(err)
	}
	return p, nil
}

// DecodeG2 decodes a compressed G2 point, checking subgroup membership.
func DecodeG2(b []byte) (bls.G2Affine, error) {
	var p bls.G2Affine
	if len(b) != bls.SizeOfG2AffineCompressed {
		return p, types.ErrMalformedEncoding.Withf("G2 point is %d bytes", len(b))
	}
	if _, err := p.SetBytes(b); err != nil {
		return p, types.ErrMalformedEncoding.WithErr(err)
	}
	return p, nil
}

// Decode validates the exported key.
func (v *VerifyingKey) Decode() (*DecodedKey, error) {
	nc := len(v.PublicAndCommitmentCommitted)
	if v.NPublic < 0 || len(v.IC) != v.NPublic+1+nc {
		return nil, types.ErrMalformedEncoding.Withf("vkIC has %d points, nPublic %d and %d commitments need %d", len(v.IC), v.NPublic, nc, v.NPublic+1+nc)
	}
	if len(v.CommitmentKeys) != nc {
		return nil, types.ErrMalformedEncoding.Withf("%d commitment keys for %d commitments", len(v.CommitmentKeys), nc)
	}
	for i, idx := range v.PublicAndCommitmentCommitted {
		for _, j := range idx {
			if j < 1 || j > v.NPublic+i {
				return nil, types.ErrMalformedEncoding.Withf("commitment %d references public input %d", i, j)
			}
		}
	}
	out := &DecodedKey{NPublic: v.NPublic, Committed: v.PublicAndCommitmentCommitted, IC: make([]bls.G1Affine, len(v.IC))}
	var err error
	if out.Alpha, err = DecodeG1(v.Alpha); err != nil {
		return nil, fmt.Errorf("vkAlpha: %w", err)
	}
	if out.Beta, err = DecodeG2(v.Beta); err != nil {
		return nil, fmt.Errorf("vkBeta: %w", err)
	}
	if out.Gamma, err = DecodeG2(v.Gamma); err != nil {
		return nil, fmt.Errorf("vkGamma: %w", err)
	}
	if out.Delta, err = DecodeG2(v.Delta); err != nil {
		return nil, fmt.Errorf("vkDelta: %w", err)
	}
	for i := range v.IC {
		if out.IC[i], err = DecodeG1(v.IC[i]); err != nil {
			return nil, fmt.Errorf("vkIC[%d]: %w", i, err)
		}
	}
	if out.CommitmentKeys, err = v.pedersenKeys(); err != nil {
		return nil, err
	}
	return out, nil
}

// Decode validates the exported proof.
func (p *Proof) Decode() (*DecodedProof, error) {
	out := &DecodedProof{}
	var err error
	if out.A, err = DecodeG1(p.PiA); err != nil {
		return nil, fmt.Errorf("piA: %w", err)
	}
	if out.B, err = DecodeG2(p.PiB); err != nil {
		return nil, fmt.Errorf("piB: %w", err)
	}
	if out.C, err = DecodeG1(p.PiC); err != nil {
		return nil, fmt.Errorf("piC: %w", err)
	}
	for i, c := range p.Commitments {
		cm, err := DecodeG1(c)
		if err != nil {
			return nil, fmt.Errorf("commitments[%d]: %w", i, err)
		}
		out.Commitments = append(out.Commitments, cm)
	}
	if len(p.Commitments) > 0 {
		if out.CommitmentPok, err = DecodeG1(p.CommitmentPok); err != nil {
			return nil, fmt.Errorf("commitmentPok: %w", err)
		}
	}
	return out, nil
}

// Vector returns the public inputs as field elements. Values must be
// canonical.
func (p *PublicInputs) Vector() (fr.Vector, error) {
	return toVector(p.Inputs)
}

// Wires returns the exported commitment wires as field elements.
func (p *PublicInputs) Wires() (fr.Vector, error) {
	return toVector(p.CommitmentWires)
}

// BigInts returns the public inputs as integers.
func (p *PublicInputs) BigInts() []*big.Int {
	out := make([]*big.Int, len(p.Inputs))
	for i, v := range p.Inputs {
		if v != nil {
			out[i] = new(big.Int).Set(v.MathBigInt())
		}
	}
	return out
}

func toVector(values []*types.BigInt) (fr.Vector, error) {
	out := make(fr.Vector, len(values))
	for i, v := range values {
		if v == nil || v.MathBigInt().Sign() < 0 || v.MathBigInt().Cmp(fr.Modulus()) >= 0 {
			return nil, types.ErrMalformedEncoding.Withf("value %d is not a canonical field element", i)
		}
		out[i].SetBigInt(v.MathBigInt())
	}
	return out, nil
}
