// Package commitment recomputes the Pedersen commitment extension (BSB22)
// that gnark attaches to Groth16 proofs of circuits using in-circuit
// commitments: the commitment wires appended to the public vector and the
// batched proof of knowledge of the committed values.
package commitment

import (
	bls "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/hash_to_field"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/pedersen"
	"github.com/consensys/gnark/constraint"
	"github.com/logical-mechanism/peace-protocol/types"
)

// ChallengeDst separates the proof of knowledge challenge.
const ChallengeDst = "G16-BSB22"

// Wires returns one field element per commitment: the hash to field of the
// uncompressed commitment followed by the values it commits to. committed
// holds, per commitment, 1-based indices into the public inputs extended
// with the wires of the commitments before it, so commitment i may
// reference any index up to len(public)+i.
func Wires(committed [][]int, commitments []bls.G1Affine, public fr.Vector) ([]fr.Element, error) {
	if len(committed) != len(commitments) {
		return nil, types.ErrProofVerification.Withf("got %d commitments, key expects %d", len(commitments), len(committed))
	}
	extended := make(fr.Vector, len(public), len(public)+len(commitments))
	copy(extended, public)
	h := hash_to_field.New([]byte(constraint.CommitmentDst))
	for i := range commitments {
		h.Reset()
		h.Write(commitments[i].Marshal())
		for _, j := range committed[i] {
			if j < 1 || j > len(extended) {
				return nil, types.ErrInvalidArgument.Withf("commitment %d references input %d of %d", i, j, len(extended))
			}
			h.Write(extended[j-1].Marshal())
		}
		digest := h.Sum(nil)
		n := fr.Bytes
		if h.Size() < n {
			n = h.Size()
		}
		var wire fr.Element
		wire.SetBytes(digest[:n])
		extended = append(extended, wire)
	}
	return extended[len(public):], nil
}

// VerifyKnowledge checks the batched proof of knowledge of the committed
// values. The wires only seed the folding challenge of several commitments;
// with a single commitment the check does not depend on them, and the
// wires are bound by the Groth16 equation instead. A key without
// commitments has nothing to check.
func VerifyKnowledge(keys []pedersen.VerifyingKey, commitments []bls.G1Affine, pok bls.G1Affine, wires []fr.Element) error {
	if len(keys) == 0 {
		return nil
	}
	if len(keys) != len(commitments) || len(wires) != len(commitments) {
		return types.ErrProofVerification.Withf("%d keys, %d commitments, %d wires", len(keys), len(commitments), len(wires))
	}
	serialized := make([]byte, 0, len(wires)*fr.Bytes)
	for i := range wires {
		b := wires[i].Bytes()
		serialized = append(serialized, b[:]...)
	}
	challenge, err := fr.Hash(serialized, []byte(ChallengeDst), 1)
	if err != nil {
		return types.ErrProofVerification.WithErr(err)
	}
	if err := pedersen.BatchVerifyMultiVk(keys, commitments, []bls.G1Affine{pok}, challenge[0]); err != nil {
		return types.ErrProofVerification.With("commitment proof of knowledge").WithErr(err)
	}
	return nil
}
