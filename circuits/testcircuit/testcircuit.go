// Package testcircuit provides a small committed circuit for exercising the
// setup, proving, export and verification paths without the cost of the
// pairing circuit.
package testcircuit

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// Circuit proves knowledge of Y with Y*Y == X. Both values go through the
// commitment API, so proofs carry one Pedersen commitment that commits to
// the public X.
type Circuit struct {
	X frontend.Variable `gnark:",public"`
	Y frontend.Variable `gnark:",secret"`
}

func (c *Circuit) Define(api frontend.API) error {
	committer, ok := api.(frontend.Committer)
	if !ok {
		return fmt.Errorf("builder does not support commitments")
	}
	cmt, err := committer.Commit(c.X, c.Y)
	if err != nil {
		return err
	}
	api.AssertIsDifferent(cmt, 0)
	api.AssertIsEqual(api.Mul(c.Y, c.Y), c.X)
	return nil
}

// Compile builds the constraint system over the BLS12-381 scalar field.
func Compile() (constraint.ConstraintSystem, error) {
	return frontend.Compile(ecc.BLS12_381.ScalarField(), r1cs.NewBuilder, &Circuit{})
}

// Assignment returns the assignment for the square root y.
func Assignment(y int64) *Circuit {
	return &Circuit{X: new(big.Int).Mul(big.NewInt(y), big.NewInt(y)), Y: y}
}

// Fixture is a compiled circuit with keys and one proof.
type Fixture struct {
	CCS     constraint.ConstraintSystem
	PK      groth16.ProvingKey
	VK      groth16.VerifyingKey
	Proof   groth16.Proof
	Public  witness.Witness
	Witness witness.Witness
}

// NewFixture runs a single-party setup and proves the assignment for y.
func NewFixture(y int64) (*Fixture, error) {
	ccs, err := Compile()
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, err
	}
	full, err := frontend.NewWitness(Assignment(y), ecc.BLS12_381.ScalarField())
	if err != nil {
		return nil, err
	}
	public, err := full.Public()
	if err != nil {
		return nil, err
	}
	proof, err := groth16.Prove(ccs, pk, full)
	if err != nil {
		return nil, err
	}
	return &Fixture{CCS: ccs, PK: pk, VK: vk, Proof: proof, Public: public, Witness: full}, nil
}
