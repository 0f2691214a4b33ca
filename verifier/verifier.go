// Package verifier checks exported Groth16 proofs over BLS12-381 without
// gnark's backend, the same way the on-chain verifier does: from the JSON
// documents and the curve library alone.
package verifier

import (
	"github.com/consensys/gnark-crypto/ecc"
	bls "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/logical-mechanism/peace-protocol/commitment"
	"github.com/logical-mechanism/peace-protocol/export"
	"github.com/logical-mechanism/peace-protocol/log"
	"github.com/logical-mechanism/peace-protocol/types"
)

// Verify checks the proof against the key and public inputs:
//
//	e(A, B) · e(-α, β) · e(-vk_x, γ) · e(-C, δ) == 1
//
// where vk_x folds the public inputs, the commitment wires and the
// commitments into the IC points. The exported commitment wires must equal
// the ones recomputed from the proof.
func Verify(vk *export.VerifyingKey, proof *export.Proof, public *export.PublicInputs) error {
	if vk == nil || proof == nil || public == nil {
		return types.ErrInvalidArgument.With("missing verifying key, proof or public inputs")
	}
	key, err := vk.Decode()
	if err != nil {
		return err
	}
	pi, err := proof.Decode()
	if err != nil {
		return err
	}
	inputs, err := public.Vector()
	if err != nil {
		return err
	}
	if len(inputs) != key.NPublic {
		return types.ErrMalformedEncoding.Withf("got %d public inputs, key expects %d", len(inputs), key.NPublic)
	}
	if len(pi.Commitments) != len(key.Committed) {
		return types.ErrProofVerification.Withf("proof has %d commitments, key expects %d", len(pi.Commitments), len(key.Committed))
	}

	wires, err := commitment.Wires(key.Committed, pi.Commitments, inputs)
	if err != nil {
		return err
	}
	exported, err := public.Wires()
	if err != nil {
		return err
	}
	if len(exported) != len(wires) {
		return types.ErrProofVerification.Withf("got %d commitment wires, proof induces %d", len(exported), len(wires))
	}
	for i := range wires {
		if !wires[i].Equal(&exported[i]) {
			return types.ErrProofVerification.Withf("commitment wire %d does not match the proof", i)
		}
	}
	if err := commitment.VerifyKnowledge(key.CommitmentKeys, pi.Commitments, pi.CommitmentPok, wires); err != nil {
		return err
	}

	scalars := make(fr.Vector, 0, len(inputs)+len(wires))
	scalars = append(scalars, inputs...)
	scalars = append(scalars, wires...)
	var vkx bls.G1Jac
	if _, err := vkx.MultiExp(key.IC[1:], scalars, ecc.MultiExpConfig{}); err != nil {
		return types.ErrProofVerification.WithErr(err)
	}
	vkx.AddMixed(&key.IC[0])
	for i := range pi.Commitments {
		vkx.AddMixed(&pi.Commitments[i])
	}
	var vkxAff, negVkx, negAlpha, negC bls.G1Affine
	vkxAff.FromJacobian(&vkx)
	negVkx.Neg(&vkxAff)
	negAlpha.Neg(&key.Alpha)
	negC.Neg(&pi.C)

	ok, err := bls.PairingCheck(
		[]bls.G1Affine{pi.A, negAlpha, negVkx, negC},
		[]bls.G2Affine{pi.B, key.Beta, key.Gamma, key.Delta},
	)
	if err != nil {
		return types.ErrProofVerification.WithErr(err)
	}
	if !ok {
		return types.ErrProofVerification.With("pairing equation does not hold")
	}
	log.Debugw("proof verified", "nPublic", key.NPublic, "commitments", len(pi.Commitments))
	return nil
}

// VerifyBundle verifies a bundle.
func VerifyBundle(b *export.Bundle) error {
	if b == nil {
		return types.ErrInvalidArgument.With("nil bundle")
	}
	return Verify(b.VerifyingKey, b.Proof, b.Public)
}
