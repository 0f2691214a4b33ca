package kappa

import (
	"errors"
	"math/big"
	"testing"

	bls "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/mimc"
	qt "github.com/frankban/quicktest"
	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/types"
)

// manualHK recomputes hk from the 576-byte canonical encoding of kappa,
// going through gnark-crypto directly.
func manualHK(c *qt.C, a int64) *big.Int {
	_, _, g1, _ := bls.Generators()
	var qa bls.G1Affine
	qa.ScalarMultiplication(&g1, big.NewInt(a))
	h0 := bls12381.H0().Affine()
	k, err := bls.Pair([]bls.G1Affine{qa}, []bls.G2Affine{h0})
	c.Assert(err, qt.IsNil)

	enc := bls12381.GTBytes(&k)
	c.Assert(enc, qt.HasLen, 576)
	h := mimc.NewMiMC()
	for i := 0; i < 12; i++ {
		var e fr.Element
		e.SetBytes(enc[i*48 : (i+1)*48])
		b := e.Bytes()
		h.Write(b[:])
	}
	var tag fr.Element
	tag.SetBytes([]byte("F12|To|Hex|v1|"))
	tb := tag.Bytes()
	h.Write(tb[:])
	return new(big.Int).SetBytes(h.Sum(nil))
}

func TestHKDeterministicAndMatchesManual(t *testing.T) {
	c := qt.New(t)
	a := big.NewInt(777)

	first, err := HK(a)
	c.Assert(err, qt.IsNil)
	second, err := HK(a)
	c.Assert(err, qt.IsNil)
	c.Assert(first.Cmp(second), qt.Equals, 0)
	c.Assert(first.Cmp(manualHK(c, 777)), qt.Equals, 0)
	c.Assert(Bytes(first), qt.HasLen, 32)
}

func TestHKDiffersPerSecret(t *testing.T) {
	c := qt.New(t)
	h1, err := HK(big.NewInt(777))
	c.Assert(err, qt.IsNil)
	h2, err := HK(big.NewInt(778))
	c.Assert(err, qt.IsNil)
	c.Assert(h1.Cmp(h2), qt.Not(qt.Equals), 0)
}

func TestZeroSecretRejected(t *testing.T) {
	c := qt.New(t)
	_, err := HK(big.NewInt(0))
	c.Assert(errors.Is(err, types.ErrInvalidScalar), qt.IsTrue)
	_, err = HK(bls12381.Order())
	c.Assert(errors.Is(err, types.ErrInvalidScalar), qt.IsTrue)
}

func TestElementsLayout(t *testing.T) {
	c := qt.New(t)
	k, err := Kappa(big.NewInt(3))
	c.Assert(err, qt.IsNil)
	elems := Elements(&k)
	c.Assert(elems, qt.HasLen, NbElements)
	tag := TagElement()
	c.Assert(elems[12].Equal(&tag), qt.IsTrue)
}
