package witnesscommit

import (
	"crypto/sha256"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/std/math/emulated"
	"github.com/consensys/gnark/std/math/emulated/emparams"
	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/types"
)

// NbPublicInputs is the length of the public witness.
const NbPublicInputs = 2

// Digest returns the two 16-byte halves of sha256 over the compressed
// encoding of w.
func Digest(w bls12381.G1) (hw0, hw1 *big.Int) {
	d := sha256.Sum256(w.Bytes())
	return new(big.Int).SetBytes(d[:16]), new(big.Int).SetBytes(d[16:])
}

// CheckDigest compares public inputs with the digest halves of w.
func CheckDigest(inputs []*big.Int, w bls12381.G1) error {
	if len(inputs) != NbPublicInputs {
		return types.ErrMalformedEncoding.Withf("got %d public inputs, want %d", len(inputs), NbPublicInputs)
	}
	hw0, hw1 := Digest(w)
	if inputs[0] == nil || inputs[1] == nil || inputs[0].Cmp(hw0) != 0 || inputs[1].Cmp(hw1) != 0 {
		return types.ErrProofVerification.Withf("public inputs are not the digest of witness %s", w.Hex())
	}
	return nil
}

// CheckVector is CheckDigest over a public witness vector.
func CheckVector(v fr.Vector, w bls12381.G1) error {
	inputs := make([]*big.Int, len(v))
	for i := range v {
		inputs[i] = v[i].BigInt(new(big.Int))
	}
	return CheckDigest(inputs, w)
}

// Inputs holds the secret digest and the witness it is claimed to produce.
type Inputs struct {
	HK      *big.Int
	Witness bls12381.G1
}

// Check rejects an hk that does not produce the witness, the zero scalar,
// whose image is the point at infinity, and the degenerate scalars 1 and
// r-1, whose image is the generator or its negation.
func (in *Inputs) Check() error {
	hk, err := bls12381.ParseScalar(in.HK)
	if err != nil {
		return err
	}
	if hk.Sign() == 0 {
		return types.ErrInvalidScalar.With("hk must be non-zero")
	}
	rMinusOne := new(big.Int).Sub(bls12381.Order(), big.NewInt(1))
	if hk.Cmp(big.NewInt(1)) == 0 || hk.Cmp(rMinusOne) == 0 {
		return types.ErrInvalidScalar.With("hk must not be 1 or r-1")
	}
	if !bls12381.G1BaseMul(hk).Equal(in.Witness) {
		return types.ErrCircuitUnsatisfiable.With("witness is not [hk]g")
	}
	return nil
}

// Assignment returns the full witness assignment.
func (in *Inputs) Assignment() *Circuit {
	c := PublicAssignment(in.Witness)
	c.HK = emulated.ValueOf[emparams.BLS12381Fr](in.HK)
	return c
}

// PublicAssignment returns an assignment carrying only the digest halves.
func PublicAssignment(w bls12381.G1) *Circuit {
	hw0, hw1 := Digest(w)
	return &Circuit{
		HK:  emulated.ValueOf[emparams.BLS12381Fr](0),
		HW0: hw0,
		HW1: hw1,
	}
}

// Compile builds the constraint system over the BLS12-381 scalar field.
func Compile() (constraint.ConstraintSystem, error) {
	return frontend.Compile(ecc.BLS12_381.ScalarField(), r1cs.NewBuilder, &Circuit{})
}
