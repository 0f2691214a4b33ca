package bls12381

import (
	"encoding/hex"
	"math/big"

	bls "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/fxamacker/cbor/v2"
	"github.com/logical-mechanism/peace-protocol/types"
	"github.com/logical-mechanism/peace-protocol/util"
)

// G1CompressedSize is the length of a compressed G1 encoding.
const G1CompressedSize = bls.SizeOfG1AffineCompressed

// G1 is a validated point of the G1 subgroup.
type G1 struct {
	p bls.G1Affine
}

var g1Gen bls.G1Affine

func init() {
	_, _, g1Gen, _ = bls.Generators()
}

// G1Generator returns the canonical G1 generator.
func G1Generator() G1 {
	return G1{p: g1Gen}
}

// NewG1 validates an affine point.
func NewG1(p bls.G1Affine) (G1, error) {
	if !p.IsInfinity() && (!p.IsOnCurve() || !p.IsInSubGroup()) {
		return G1{}, types.ErrMalformedEncoding.With("G1 point not in subgroup")
	}
	return G1{p: p}, nil
}

// G1FromBytes decodes a 48-byte compressed point.
func G1FromBytes(b []byte) (G1, error) {
	if len(b) != G1CompressedSize {
		return G1{}, types.ErrMalformedEncoding.Withf("G1 encoding is %d bytes, want %d", len(b), G1CompressedSize)
	}
	var p bls.G1Affine
	if _, err := p.SetBytes(b); err != nil {
		return G1{}, types.ErrMalformedEncoding.WithErr(err)
	}
	return G1{p: p}, nil
}

// G1FromHex decodes a compressed point from hex, with or without 0x prefix.
func G1FromHex(s string) (G1, error) {
	b, err := hex.DecodeString(util.TrimHex(s))
	if err != nil {
		return G1{}, types.ErrMalformedEncoding.WithErr(err)
	}
	return G1FromBytes(b)
}

// G1BaseMul returns [k]g.
func G1BaseMul(k *big.Int) G1 {
	var r bls.G1Affine
	r.ScalarMultiplicationBase(ReduceScalar(k))
	return G1{p: r}
}

// Mul returns [k]g1.
func (g G1) Mul(k *big.Int) G1 {
	var r bls.G1Affine
	r.ScalarMultiplication(&g.p, ReduceScalar(k))
	return G1{p: r}
}

func (g G1) Add(h G1) G1 {
	var r bls.G1Affine
	r.Add(&g.p, &h.p)
	return G1{p: r}
}

func (g G1) Sub(h G1) G1 {
	var r bls.G1Affine
	r.Sub(&g.p, &h.p)
	return G1{p: r}
}

func (g G1) Neg() G1 {
	var r bls.G1Affine
	r.Neg(&g.p)
	return G1{p: r}
}

func (g G1) Equal(h G1) bool {
	return g.p.Equal(&h.p)
}

func (g G1) IsInfinity() bool {
	return g.p.IsInfinity()
}

// Bytes returns the 48-byte compressed encoding.
func (g G1) Bytes() []byte {
	b := g.p.Bytes()
	return b[:]
}

func (g G1) Hex() string {
	return hex.EncodeToString(g.Bytes())
}

func (g G1) String() string {
	return g.Hex()
}

// Affine returns a copy of the underlying gnark-crypto point.
func (g G1) Affine() bls.G1Affine {
	return g.p
}

// Coordinates returns the affine coordinates as integers.
func (g G1) Coordinates() (x, y *big.Int) {
	return g.p.X.BigInt(new(big.Int)), g.p.Y.BigInt(new(big.Int))
}

func (g G1) MarshalText() ([]byte, error) {
	return []byte(g.Hex()), nil
}

func (g *G1) UnmarshalText(data []byte) error {
	p, err := G1FromHex(string(data))
	if err != nil {
		return err
	}
	*g = p
	return nil
}

func (g G1) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(g.Bytes())
}

func (g *G1) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return types.ErrMalformedEncoding.WithErr(err)
	}
	p, err := G1FromBytes(b)
	if err != nil {
		return err
	}
	*g = p
	return nil
}
