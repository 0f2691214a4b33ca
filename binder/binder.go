// Package binder reconciles the public inputs of the witness-derivation
// proof with the compressed points declared in the protocol state. The
// proof only speaks about base field limbs; a statement is bound to the
// on-chain points only after every limb vector decodes to exactly the
// declared point.
package binder

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/logical-mechanism/peace-protocol/circuits"
	"github.com/logical-mechanism/peace-protocol/circuits/witnessderivation"
	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/types"
)

// Points are the three points carried by the public inputs, in order.
type Points struct {
	Recipient bls12381.G1
	Witness   bls12381.G1
	NewR2     bls12381.G1
}

var pointNames = [3]string{"recipient", "witness", "new r2"}

func (p Points) list() [3]bls12381.G1 {
	return [3]bls12381.G1{p.Recipient, p.Witness, p.NewR2}
}

var halfP = new(big.Int).Rsh(fp.Modulus(), 1)

// Compress rebuilds the 48-byte compressed encoding from the limbs of the
// affine coordinates: the big-endian x with the compression flag, plus the
// sign flag when y is the lexicographically largest root.
func Compress(xLimbs, yLimbs []*big.Int) ([]byte, error) {
	x, err := coordinate(xLimbs)
	if err != nil {
		return nil, fmt.Errorf("x: %w", err)
	}
	y, err := coordinate(yLimbs)
	if err != nil {
		return nil, fmt.Errorf("y: %w", err)
	}
	return compress(x, y), nil
}

func compress(x, y *big.Int) []byte {
	out := x.FillBytes(make([]byte, fp.Bytes))
	out[0] |= 0x80
	if y.Cmp(halfP) > 0 {
		out[0] |= 0x20
	}
	return out
}

func coordinate(limbs []*big.Int) (*big.Int, error) {
	v, err := circuits.LimbsToFp(limbs)
	if err != nil {
		return nil, err
	}
	if v.Cmp(fp.Modulus()) >= 0 {
		return nil, types.ErrMalformedEncoding.With("coordinate not below the base field modulus")
	}
	return v, nil
}

// decodePoint validates the limbs of one point and returns it. The
// compressed encoding fixes x and the sign of y; the y limbs must then be
// exactly the root it selects.
func decodePoint(limbs []*big.Int) (bls12381.G1, error) {
	x, err := coordinate(limbs[:circuits.FpLimbs])
	if err != nil {
		return bls12381.G1{}, err
	}
	y, err := coordinate(limbs[circuits.FpLimbs:])
	if err != nil {
		return bls12381.G1{}, err
	}
	p, err := bls12381.G1FromBytes(compress(x, y))
	if err != nil {
		return bls12381.G1{}, err
	}
	if _, py := p.Coordinates(); py.Cmp(y) != 0 {
		return bls12381.G1{}, types.ErrMalformedEncoding.With("y limbs do not match the point")
	}
	return p, nil
}

// Decode splits the public input vector into its three points and
// validates each one.
func Decode(inputs []*big.Int) (Points, error) {
	if len(inputs) != witnessderivation.NbPublicInputs {
		return Points{}, types.ErrMalformedEncoding.Withf("got %d public inputs, want %d", len(inputs), witnessderivation.NbPublicInputs)
	}
	var out [3]bls12381.G1
	step := 2 * circuits.FpLimbs
	for i := range out {
		p, err := decodePoint(inputs[i*step : (i+1)*step])
		if err != nil {
			return Points{}, fmt.Errorf("%s: %w", pointNames[i], err)
		}
		out[i] = p
	}
	return Points{Recipient: out[0], Witness: out[1], NewR2: out[2]}, nil
}

// DecodeVector is Decode over a field vector, as produced by a public
// witness. Commitment wires appended after the points are not accepted.
func DecodeVector(v fr.Vector) (Points, error) {
	return Decode(vectorToBigInts(v))
}

// CheckVector is Check over a field vector.
func CheckVector(v fr.Vector, expected Points) error {
	return Check(vectorToBigInts(v), expected)
}

func vectorToBigInts(v fr.Vector) []*big.Int {
	out := make([]*big.Int, len(v))
	for i := range v {
		out[i] = v[i].BigInt(new(big.Int))
	}
	return out
}

// Check decodes the inputs and compares each point bit for bit with the
// expected one.
func Check(inputs []*big.Int, expected Points) error {
	got, err := Decode(inputs)
	if err != nil {
		return err
	}
	want := expected.list()
	for i, p := range got.list() {
		if !bytes.Equal(p.Bytes(), want[i].Bytes()) {
			return types.ErrProofVerification.Withf("%s point mismatch: proof has %s, expected %s", pointNames[i], p.Hex(), want[i].Hex())
		}
	}
	return nil
}
