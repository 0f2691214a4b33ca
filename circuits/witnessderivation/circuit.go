package witnessderivation

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/algopts"
	"github.com/consensys/gnark/std/algebra/emulated/sw_bls12381"
	"github.com/consensys/gnark/std/algebra/emulated/sw_emulated"
	"github.com/consensys/gnark/std/math/emulated"
	"github.com/consensys/gnark/std/math/emulated/emparams"
	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
)

// Circuit proves knowledge of (A, R) such that, for the public points V
// (recipient key), W0 (witness) and W1 (new level r2):
//
//	hk = MiMC(coefficients(e([A]g, h0)) || tag)
//	W0 == [hk]g
//	W1 == [A]g + [R]V
//
// The public points are not checked to be on the curve: the consumer
// validates them before they reach the prover, which saves the constraints
// of three emulated curve membership checks.
type Circuit struct {
	A emulated.Element[emparams.BLS12381Fr] `gnark:",secret"`
	R emulated.Element[emparams.BLS12381Fr] `gnark:",secret"`

	VX  emulated.Element[emparams.BLS12381Fp] `gnark:",public"`
	VY  emulated.Element[emparams.BLS12381Fp] `gnark:",public"`
	W0X emulated.Element[emparams.BLS12381Fp] `gnark:",public"`
	W0Y emulated.Element[emparams.BLS12381Fp] `gnark:",public"`
	W1X emulated.Element[emparams.BLS12381Fp] `gnark:",public"`
	W1Y emulated.Element[emparams.BLS12381Fp] `gnark:",public"`
}

func (c *Circuit) Define(api frontend.API) error {
	curve, err := sw_emulated.New[emparams.BLS12381Fp, emparams.BLS12381Fr](api, sw_emulated.GetBLS12381Params())
	if err != nil {
		return fmt.Errorf("new curve: %w", err)
	}
	v := sw_emulated.AffinePoint[emparams.BLS12381Fp]{X: c.VX, Y: c.VY}
	w0 := sw_emulated.AffinePoint[emparams.BLS12381Fp]{X: c.W0X, Y: c.W0Y}
	w1 := sw_emulated.AffinePoint[emparams.BLS12381Fp]{X: c.W1X, Y: c.W1Y}

	qa := curve.ScalarMulBase(&c.A)

	pairing, err := sw_bls12381.NewPairing(api)
	if err != nil {
		return fmt.Errorf("new pairing: %w", err)
	}
	h0 := sw_bls12381.NewG2AffineFixed(bls12381.H0().Affine())
	kappa, err := pairing.Pair([]*sw_bls12381.G1Affine{qa}, []*sw_bls12381.G2Affine{&h0})
	if err != nil {
		return fmt.Errorf("pair: %w", err)
	}
	hk, err := kappaDigest(api, kappa)
	if err != nil {
		return err
	}

	curve.AssertIsEqual(curve.ScalarMulBase(hk), &w0)

	// complete arithmetic keeps R = 0 representable: [0]V is the identity
	// and the unified addition returns qa unchanged
	rv := curve.ScalarMul(&v, &c.R, algopts.WithCompleteArithmetic())
	curve.AssertIsEqual(curve.AddUnified(qa, rv), &w1)
	return nil
}
