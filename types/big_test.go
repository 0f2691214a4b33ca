package types

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	qt "github.com/frankban/quicktest"
	"github.com/fxamacker/cbor/v2"
)

func TestBigIntPublicInputsJSON(t *testing.T) {
	c := qt.New(t)
	// field elements above 2^64 must survive as decimal strings
	top := new(big.Int).Sub(fr.Modulus(), big.NewInt(1))
	doc := struct {
		Inputs []*BigInt `json:"inputs"`
	}{Inputs: []*BigInt{NewInt(0), NewInt(121), (*BigInt)(top)}}

	data, err := json.Marshal(doc)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `{"inputs":["0","121","`+top.String()+`"]}`)

	var back struct {
		Inputs []*BigInt `json:"inputs"`
	}
	c.Assert(json.Unmarshal(data, &back), qt.IsNil)
	c.Assert(back.Inputs, qt.HasLen, 3)
	for i := range doc.Inputs {
		c.Assert(back.Inputs[i].Equal(doc.Inputs[i]), qt.IsTrue, qt.Commentf("input %d", i))
	}
	c.Assert(back.Inputs[2].MathBigInt().Cmp(top), qt.Equals, 0)
}

func TestBigIntUnmarshalText(t *testing.T) {
	c := qt.New(t)
	var i BigInt
	c.Assert(i.UnmarshalText([]byte("0x79")), qt.IsNil)
	c.Assert(i.String(), qt.Equals, "121")

	err := i.UnmarshalText([]byte("12ab"))
	c.Assert(err, qt.ErrorIs, ErrMalformedEncoding)

	var doc struct {
		A *BigInt `json:"a"`
	}
	err = json.Unmarshal([]byte(`{"a":"not a number"}`), &doc)
	c.Assert(err, qt.ErrorIs, ErrMalformedEncoding)
}

func TestBigIntCBORRecord(t *testing.T) {
	c := qt.New(t)
	type record struct {
		K  *BigInt  `cbor:"0,keyasint"`
		ID HexBytes `cbor:"1,keyasint"`
	}
	k := new(big.Int).Lsh(big.NewInt(1), 200)
	in := record{K: (*BigInt)(k), ID: HexBytes{0xde, 0xad}}
	data, err := cbor.Marshal(in)
	c.Assert(err, qt.IsNil)

	var out record
	c.Assert(cbor.Unmarshal(data, &out), qt.IsNil)
	c.Assert(out.K.Equal(in.K), qt.IsTrue)
	c.Assert(out.ID, qt.DeepEquals, in.ID)

	c.Assert(new(BigInt).UnmarshalCBOR([]byte{0xff}), qt.IsNotNil)
}

func TestHexBytesJSON(t *testing.T) {
	c := qt.New(t)
	data, err := json.Marshal(HexBytes("peace"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `"7065616365"`)

	var b HexBytes
	c.Assert(json.Unmarshal([]byte(`"0x7065616365"`), &b), qt.IsNil)
	c.Assert(string(b), qt.Equals, "peace")
	c.Assert(b.String(), qt.Equals, "7065616365")

	c.Assert(json.Unmarshal([]byte(`"zz"`), &b), qt.ErrorIs, ErrMalformedEncoding)
	c.Assert(json.Unmarshal([]byte(`12`), &b), qt.IsNotNil)
}
