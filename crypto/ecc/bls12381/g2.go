package bls12381

import (
	"encoding/hex"
	"math/big"

	bls "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/fxamacker/cbor/v2"
	"github.com/logical-mechanism/peace-protocol/types"
	"github.com/logical-mechanism/peace-protocol/util"
)

// G2CompressedSize is the length of a compressed G2 encoding.
const G2CompressedSize = bls.SizeOfG2AffineCompressed

// G2 is a validated point of the G2 subgroup.
type G2 struct {
	p bls.G2Affine
}

var g2Gen bls.G2Affine

func init() {
	_, _, _, g2Gen = bls.Generators()
}

// G2Generator returns the canonical G2 generator.
func G2Generator() G2 {
	return G2{p: g2Gen}
}

// NewG2 validates an affine point.
func NewG2(p bls.G2Affine) (G2, error) {
	if !p.IsInfinity() && (!p.IsOnCurve() || !p.IsInSubGroup()) {
		return G2{}, types.ErrMalformedEncoding.With("G2 point not in subgroup")
	}
	return G2{p: p}, nil
}

// G2FromBytes decodes a 96-byte compressed point.
func G2FromBytes(b []byte) (G2, error) {
	if len(b) != G2CompressedSize {
		return G2{}, types.ErrMalformedEncoding.Withf("G2 encoding is %d bytes, want %d", len(b), G2CompressedSize)
	}
	var p bls.G2Affine
	if _, err := p.SetBytes(b); err != nil {
		return G2{}, types.ErrMalformedEncoding.WithErr(err)
	}
	return G2{p: p}, nil
}

// G2FromHex decodes a compressed point from hex, with or without 0x prefix.
func G2FromHex(s string) (G2, error) {
	b, err := hex.DecodeString(util.TrimHex(s))
	if err != nil {
		return G2{}, types.ErrMalformedEncoding.WithErr(err)
	}
	return G2FromBytes(b)
}

// G2BaseMul returns [k]p for the G2 generator p.
func G2BaseMul(k *big.Int) G2 {
	var r bls.G2Affine
	r.ScalarMultiplicationBase(ReduceScalar(k))
	return G2{p: r}
}

func (g G2) Mul(k *big.Int) G2 {
	var r bls.G2Affine
	r.ScalarMultiplication(&g.p, ReduceScalar(k))
	return G2{p: r}
}

func (g G2) Add(h G2) G2 {
	var r bls.G2Affine
	r.Add(&g.p, &h.p)
	return G2{p: r}
}

func (g G2) Sub(h G2) G2 {
	var r bls.G2Affine
	r.Sub(&g.p, &h.p)
	return G2{p: r}
}

func (g G2) Neg() G2 {
	var r bls.G2Affine
	r.Neg(&g.p)
	return G2{p: r}
}

func (g G2) Equal(h G2) bool {
	return g.p.Equal(&h.p)
}

func (g G2) IsInfinity() bool {
	return g.p.IsInfinity()
}

// Bytes returns the 96-byte compressed encoding.
func (g G2) Bytes() []byte {
	b := g.p.Bytes()
	return b[:]
}

func (g G2) Hex() string {
	return hex.EncodeToString(g.Bytes())
}

func (g G2) String() string {
	return g.Hex()
}

// Affine returns a copy of the underlying gnark-crypto point.
func (g G2) Affine() bls.G2Affine {
	return g.p
}

func (g G2) MarshalText() ([]byte, error) {
	return []byte(g.Hex()), nil
}

func (g *G2) UnmarshalText(data []byte) error {
	p, err := G2FromHex(string(data))
	if err != nil {
		return err
	}
	*g = p
	return nil
}

func (g G2) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(g.Bytes())
}

func (g *G2) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return types.ErrMalformedEncoding.WithErr(err)
	}
	p, err := G2FromBytes(b)
	if err != nil {
		return err
	}
	*g = p
	return nil
}
