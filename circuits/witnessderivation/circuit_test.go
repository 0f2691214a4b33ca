package witnessderivation

import (
	"math/big"
	"os"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/test"
	qt "github.com/frankban/quicktest"
	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/types"
)

func skipCircuitTests(t *testing.T) {
	if os.Getenv("RUN_CIRCUIT_TESTS") == "" || os.Getenv("RUN_CIRCUIT_TESTS") == "false" {
		t.Skip("skipping circuit tests...")
	}
}

func TestCircuitSolved(t *testing.T) {
	skipCircuitTests(t)
	c := qt.New(t)
	for _, pair := range [][2]int64{{2, 2}, {3, 200}, {100, 100}, {999999, 888888}} {
		in := honestInputs(c, big.NewInt(pair[0]), big.NewInt(pair[1]))
		c.Assert(in.Check(), qt.IsNil)
		err := test.IsSolved(&Circuit{}, in.Assignment(), ecc.BLS12_381.ScalarField())
		c.Assert(err, qt.IsNil, qt.Commentf("a=%d r=%d", pair[0], pair[1]))
	}
}

func TestCircuitZeroBlinding(t *testing.T) {
	skipCircuitTests(t)
	c := qt.New(t)
	in := honestInputs(c, big.NewInt(5), big.NewInt(0))
	c.Assert(in.NewR2.Equal(bls12381.G1BaseMul(big.NewInt(5))), qt.IsTrue)
	c.Assert(test.IsSolved(&Circuit{}, in.Assignment(), ecc.BLS12_381.ScalarField()), qt.IsNil)
}

func TestCircuitRejectsWrongPoints(t *testing.T) {
	skipCircuitTests(t)
	c := qt.New(t)
	in := honestInputs(c, big.NewInt(3), big.NewInt(200))
	field := ecc.BLS12_381.ScalarField()

	bad := *in
	bad.Witness = bls12381.G1BaseMul(big.NewInt(42))
	c.Assert(test.IsSolved(&Circuit{}, bad.Assignment(), field), qt.IsNotNil)

	bad = *in
	bad.NewR2 = bls12381.G1BaseMul(big.NewInt(42))
	c.Assert(test.IsSolved(&Circuit{}, bad.Assignment(), field), qt.IsNotNil)

	bad = *in
	bad.Recipient = bls12381.G1BaseMul(big.NewInt(42))
	c.Assert(test.IsSolved(&Circuit{}, bad.Assignment(), field), qt.IsNotNil)

	bad = *in
	bad.A = big.NewInt(4)
	c.Assert(test.IsSolved(&Circuit{}, bad.Assignment(), field), qt.IsNotNil)
}

func TestCircuitRejectsShiftedPoints(t *testing.T) {
	skipCircuitTests(t)
	c := qt.New(t)
	in := honestInputs(c, big.NewInt(3), big.NewInt(200))
	field := ecc.BLS12_381.ScalarField()
	g := bls12381.G1Generator()

	// each public point moved by the generator
	for name, shift := range map[string]func(*Inputs){
		"witness":   func(b *Inputs) { b.Witness = b.Witness.Add(g) },
		"new r2":    func(b *Inputs) { b.NewR2 = b.NewR2.Add(g) },
		"recipient": func(b *Inputs) { b.Recipient = b.Recipient.Add(g) },
	} {
		bad := *in
		shift(&bad)
		c.Assert(bad.Check(), qt.ErrorIs, types.ErrCircuitUnsatisfiable, qt.Commentf("%s", name))
		c.Assert(test.IsSolved(&Circuit{}, bad.Assignment(), field), qt.IsNotNil, qt.Commentf("%s", name))
	}
}

func TestCompile(t *testing.T) {
	skipCircuitTests(t)
	c := qt.New(t)
	ccs, err := Compile()
	c.Assert(err, qt.IsNil)
	c.Assert(ccs.GetNbPublicVariables(), qt.Equals, NbPublicInputs+1)
	c.Logf("constraints: %d", ccs.GetNbConstraints())
}
