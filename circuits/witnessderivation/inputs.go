// Package witnessderivation holds the pairing circuit that proves a
// decryption witness was honestly derived from a hidden hop secret, and the
// helpers that turn protocol values into its assignment.
package witnessderivation

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/std/math/emulated"
	"github.com/consensys/gnark/std/math/emulated/emparams"
	"github.com/logical-mechanism/peace-protocol/circuits"
	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/crypto/kappa"
	"github.com/logical-mechanism/peace-protocol/types"
)

// NbPublicInputs is the length of the public witness: three points, two
// coordinates each, split in base field limbs.
const NbPublicInputs = 3 * 2 * circuits.FpLimbs

// Policy holds the numeric choices a caller can make about the secrets.
type Policy struct {
	// AllowZeroBlinding accepts r = 0. The new level point is then [a]g
	// and its link to the recipient key is public.
	AllowZeroBlinding bool
}

// Inputs are the values a prover needs: the secrets and the three public
// points they are claimed to produce.
type Inputs struct {
	A         *big.Int
	R         *big.Int
	Recipient bls12381.G1
	Witness   bls12381.G1
	NewR2     bls12381.G1
}

// Validate applies the numeric policy to the secrets. The base point
// scalar multiplication gadget uses incomplete formulas that cannot handle
// the scalars 1 and r-1, so those are rejected together with a = 0.
func (in *Inputs) Validate(p Policy) error {
	a, err := bls12381.ParseScalar(in.A)
	if err != nil {
		return types.ErrInvalidScalar.With("a is not a canonical scalar")
	}
	if _, err := bls12381.ParseScalar(in.R); err != nil {
		return types.ErrInvalidScalar.With("r is not a canonical scalar")
	}
	if a.Sign() == 0 {
		return types.ErrInvalidScalar.With("a must be non-zero")
	}
	if isBoundary(a) {
		return types.ErrInvalidScalar.With("a must not be 1 or r-1")
	}
	if in.R.Sign() == 0 && !p.AllowZeroBlinding {
		return types.ErrInvalidScalar.With("zero blinding is not allowed by the policy")
	}
	return nil
}

func isBoundary(k *big.Int) bool {
	rMinusOne := new(big.Int).Sub(bls12381.Order(), big.NewInt(1))
	return k.Cmp(big.NewInt(1)) == 0 || k.Cmp(rMinusOne) == 0
}

// Check evaluates the relation natively so that an unsatisfiable
// assignment is rejected before the expensive prover runs.
func (in *Inputs) Check() error {
	hk, err := kappa.HK(in.A)
	if err != nil {
		return err
	}
	if hk.Sign() == 0 || isBoundary(hk) {
		return types.ErrCircuitUnsatisfiable.With("hop digest is a degenerate scalar")
	}
	if !bls12381.G1BaseMul(hk).Equal(in.Witness) {
		return types.ErrCircuitUnsatisfiable.With("witness is not [hk]g")
	}
	if !bls12381.G1BaseMul(in.A).Add(in.Recipient.Mul(in.R)).Equal(in.NewR2) {
		return types.ErrCircuitUnsatisfiable.With("new r2 is not [a]g + [r]v")
	}
	return nil
}

// Assignment returns the full witness assignment.
func (in *Inputs) Assignment() *Circuit {
	c := PublicAssignment(in.Recipient, in.Witness, in.NewR2)
	c.A = emulated.ValueOf[emparams.BLS12381Fr](in.A)
	c.R = emulated.ValueOf[emparams.BLS12381Fr](in.R)
	return c
}

// PublicAssignment returns an assignment carrying only the public points,
// enough to build a public witness.
func PublicAssignment(recipient, witness, newR2 bls12381.G1) *Circuit {
	vx, vy := recipient.Coordinates()
	w0x, w0y := witness.Coordinates()
	w1x, w1y := newR2.Coordinates()
	return &Circuit{
		A:   emulated.ValueOf[emparams.BLS12381Fr](0),
		R:   emulated.ValueOf[emparams.BLS12381Fr](0),
		VX:  emulated.ValueOf[emparams.BLS12381Fp](vx),
		VY:  emulated.ValueOf[emparams.BLS12381Fp](vy),
		W0X: emulated.ValueOf[emparams.BLS12381Fp](w0x),
		W0Y: emulated.ValueOf[emparams.BLS12381Fp](w0y),
		W1X: emulated.ValueOf[emparams.BLS12381Fp](w1x),
		W1Y: emulated.ValueOf[emparams.BLS12381Fp](w1y),
	}
}

// PublicInputs returns the public witness vector of the three points in
// circuit order, as the limbs a verifier receives.
func PublicInputs(recipient, witness, newR2 bls12381.G1) []*big.Int {
	out := make([]*big.Int, 0, NbPublicInputs)
	for _, p := range []bls12381.G1{recipient, witness, newR2} {
		x, y := p.Coordinates()
		out = append(out, circuits.FpToLimbs(x)...)
		out = append(out, circuits.FpToLimbs(y)...)
	}
	return out
}

// Compile builds the constraint system over the BLS12-381 scalar field.
func Compile() (constraint.ConstraintSystem, error) {
	return frontend.Compile(ecc.BLS12_381.ScalarField(), r1cs.NewBuilder, &Circuit{})
}
