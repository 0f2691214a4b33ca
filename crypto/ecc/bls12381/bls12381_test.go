package bls12381

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	bls "github.com/consensys/gnark-crypto/ecc/bls12-381"
	qt "github.com/frankban/quicktest"
	"github.com/fxamacker/cbor/v2"
	"github.com/logical-mechanism/peace-protocol/types"
)

func TestCompressRoundTrip(t *testing.T) {
	c := qt.New(t)
	for i := 0; i < 8; i++ {
		k := MustRandomScalar()
		p1 := G1BaseMul(k)
		got1, err := G1FromBytes(p1.Bytes())
		c.Assert(err, qt.IsNil)
		c.Assert(got1.Equal(p1), qt.IsTrue)

		got1, err = G1FromHex("0x" + p1.Hex())
		c.Assert(err, qt.IsNil)
		c.Assert(got1.Equal(p1), qt.IsTrue)

		p2 := G2BaseMul(k)
		got2, err := G2FromHex(p2.Hex())
		c.Assert(err, qt.IsNil)
		c.Assert(got2.Equal(p2), qt.IsTrue)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	c := qt.New(t)

	_, err := G1FromHex("zz")
	c.Assert(errors.Is(err, types.ErrMalformedEncoding), qt.IsTrue)

	_, err = G1FromBytes(make([]byte, 47))
	c.Assert(errors.Is(err, types.ErrMalformedEncoding), qt.IsTrue)

	// a G2 encoding is not a G1 encoding
	_, err = G1FromHex(H0Hex)
	c.Assert(errors.Is(err, types.ErrMalformedEncoding), qt.IsTrue)

	// 48 bytes without the compression flag
	bad := G1Generator().Bytes()
	bad[0] &= 0x1f
	_, err = G1FromBytes(bad)
	c.Assert(errors.Is(err, types.ErrMalformedEncoding), qt.IsTrue)
}

func TestNewG1RejectsOffCurve(t *testing.T) {
	c := qt.New(t)
	var p bls.G1Affine
	p.X.SetOne()
	p.Y.SetOne()
	_, err := NewG1(p)
	c.Assert(errors.Is(err, types.ErrMalformedEncoding), qt.IsTrue)

	g, err := NewG1(G1Generator().Affine())
	c.Assert(err, qt.IsNil)
	c.Assert(g.Equal(G1Generator()), qt.IsTrue)
}

func TestGroupOps(t *testing.T) {
	c := qt.New(t)
	a, b := big.NewInt(12345), big.NewInt(67890)
	sum := G1BaseMul(a).Add(G1BaseMul(b))
	c.Assert(sum.Equal(G1BaseMul(new(big.Int).Add(a, b))), qt.IsTrue)
	c.Assert(sum.Sub(G1BaseMul(b)).Equal(G1BaseMul(a)), qt.IsTrue)
	c.Assert(G1BaseMul(a).Add(G1BaseMul(a).Neg()).IsInfinity(), qt.IsTrue)

	// scalars are reduced mod r
	c.Assert(G1BaseMul(new(big.Int).Add(a, Order())).Equal(G1BaseMul(a)), qt.IsTrue)
	c.Assert(G2Generator().Mul(a).Equal(G2BaseMul(a)), qt.IsTrue)
}

func TestPairingBilinear(t *testing.T) {
	c := qt.New(t)
	a, b := MustRandomScalar(), MustRandomScalar()
	lhs, err := Pair([]G1{G1BaseMul(a)}, []G2{H0().Mul(b)})
	c.Assert(err, qt.IsNil)
	ab := new(big.Int).Mul(a, b)
	rhs, err := Pair([]G1{G1BaseMul(ab)}, []G2{H0()})
	c.Assert(err, qt.IsNil)
	c.Assert(lhs.Equal(&rhs), qt.IsTrue)

	ok, err := PairingCheck([]G1{G1BaseMul(a), G1BaseMul(a).Neg()}, []G2{H0(), H0()})
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	one := Div(lhs, rhs)
	c.Assert(one.IsOne(), qt.IsTrue)
	c.Assert(GTBytes(&lhs), qt.HasLen, 12*GTCoefficientSize)
}

func TestConstantsAreDistinct(t *testing.T) {
	c := qt.New(t)
	all := []G2{H0(), HA(), HB(), HC(), P()}
	for i := range all {
		c.Assert(all[i].IsInfinity(), qt.IsFalse)
		for j := i + 1; j < len(all); j++ {
			c.Assert(all[i].Equal(all[j]), qt.IsFalse, qt.Commentf("constants %d and %d", i, j))
		}
	}
}

func TestPointEncodings(t *testing.T) {
	c := qt.New(t)
	type pair struct {
		A G1 `json:"a" cbor:"a"`
		B G2 `json:"b" cbor:"b"`
	}
	in := pair{A: G1BaseMul(big.NewInt(7)), B: G2BaseMul(big.NewInt(9))}

	data, err := json.Marshal(in)
	c.Assert(err, qt.IsNil)
	var out pair
	c.Assert(json.Unmarshal(data, &out), qt.IsNil)
	c.Assert(out.A.Equal(in.A), qt.IsTrue)
	c.Assert(out.B.Equal(in.B), qt.IsTrue)

	data, err = cbor.Marshal(in)
	c.Assert(err, qt.IsNil)
	out = pair{}
	c.Assert(cbor.Unmarshal(data, &out), qt.IsNil)
	c.Assert(out.A.Equal(in.A), qt.IsTrue)
	c.Assert(out.B.Equal(in.B), qt.IsTrue)
}

func TestScalars(t *testing.T) {
	c := qt.New(t)
	c.Assert(ScalarBytes(big.NewInt(1)), qt.HasLen, ScalarSize)
	c.Assert(ScalarFromBytes(ScalarBytes(big.NewInt(42))).Int64(), qt.Equals, int64(42))
	c.Assert(ReduceScalar(big.NewInt(-1)).Cmp(new(big.Int).Sub(Order(), big.NewInt(1))), qt.Equals, 0)

	_, err := ParseScalar(Order())
	c.Assert(errors.Is(err, types.ErrInvalidScalar), qt.IsTrue)
}
