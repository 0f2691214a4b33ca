package verifier

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark/backend/groth16"
	qt "github.com/frankban/quicktest"
	"github.com/logical-mechanism/peace-protocol/circuits/testcircuit"
	"github.com/logical-mechanism/peace-protocol/export"
	"github.com/logical-mechanism/peace-protocol/types"
)

func newBundle(c *qt.C, y int64) (*export.Bundle, *testcircuit.Fixture) {
	fx, err := testcircuit.NewFixture(y)
	c.Assert(err, qt.IsNil)
	b, err := export.NewBundle(fx.VK, fx.Proof, fx.Public)
	c.Assert(err, qt.IsNil)
	return b, fx
}

func TestAgreesWithGnark(t *testing.T) {
	c := qt.New(t)
	b, fx := newBundle(c, 9)
	c.Assert(groth16.Verify(fx.Proof, fx.VK, fx.Public), qt.IsNil)
	c.Assert(VerifyBundle(b), qt.IsNil)
}

func TestRejectsTampering(t *testing.T) {
	c := qt.New(t)
	b, _ := newBundle(c, 9)
	other, _ := newBundle(c, 5)

	// wrong public input
	pub := *b.Public
	pub.Inputs = []*types.BigInt{types.NewInt(82)}
	c.Assert(Verify(b.VerifyingKey, b.Proof, &pub), qt.ErrorIs, types.ErrProofVerification)

	// wire not matching the proof
	pub = *b.Public
	pub.CommitmentWires = []*types.BigInt{types.NewInt(1)}
	c.Assert(Verify(b.VerifyingKey, b.Proof, &pub), qt.ErrorIs, types.ErrProofVerification)

	// the exported wire shifted by one, read back from disk
	dir := c.TempDir()
	c.Assert(export.WriteBundle(dir, b), qt.IsNil)
	altered, err := export.ReadBundle(dir)
	c.Assert(err, qt.IsNil)
	c.Assert(altered.Public.CommitmentWires, qt.HasLen, 1)
	shifted := new(big.Int).Add(altered.Public.CommitmentWires[0].MathBigInt(), big.NewInt(1))
	altered.Public.CommitmentWires = []*types.BigInt{(*types.BigInt)(shifted)}
	c.Assert(VerifyBundle(altered), qt.ErrorIs, types.ErrProofVerification)

	// wire omitted
	pub = *b.Public
	pub.CommitmentWires = nil
	c.Assert(Verify(b.VerifyingKey, b.Proof, &pub), qt.ErrorIs, types.ErrProofVerification)

	// proof from another setup
	c.Assert(Verify(b.VerifyingKey, other.Proof, other.Public), qt.ErrorIs, types.ErrProofVerification)

	// swapped proof points
	proof := *b.Proof
	proof.PiA, proof.PiC = proof.PiC, proof.PiA
	c.Assert(Verify(b.VerifyingKey, &proof, b.Public), qt.ErrorIs, types.ErrProofVerification)

	// commitments dropped
	proof = *b.Proof
	proof.Commitments = nil
	c.Assert(Verify(b.VerifyingKey, &proof, b.Public), qt.ErrorIs, types.ErrProofVerification)
}

func TestRejectsMalformed(t *testing.T) {
	c := qt.New(t)
	b, _ := newBundle(c, 3)

	pub := *b.Public
	pub.Inputs = append(pub.Inputs, types.NewInt(1))
	c.Assert(Verify(b.VerifyingKey, b.Proof, &pub), qt.ErrorIs, types.ErrMalformedEncoding)

	proof := *b.Proof
	proof.PiB = proof.PiB[:10]
	c.Assert(Verify(b.VerifyingKey, &proof, b.Public), qt.ErrorIs, types.ErrMalformedEncoding)

	pub = *b.Public
	pub.Inputs = []*types.BigInt{(*types.BigInt)(new(big.Int).Neg(big.NewInt(1)))}
	c.Assert(Verify(b.VerifyingKey, b.Proof, &pub), qt.ErrorIs, types.ErrMalformedEncoding)

	c.Assert(Verify(nil, b.Proof, b.Public), qt.ErrorIs, types.ErrInvalidArgument)
}
