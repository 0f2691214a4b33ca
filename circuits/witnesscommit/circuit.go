// Package witnesscommit holds the circuit that proves knowledge of hk for a
// disclosed witness W = [hk]g through a SHA-256 digest of the compressed
// encoding of W. It serves consumers that can hash bytes but cannot
// evaluate the pairing relation.
package witnesscommit

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/emulated/sw_emulated"
	"github.com/consensys/gnark/std/conversion"
	"github.com/consensys/gnark/std/hash/sha2"
	"github.com/consensys/gnark/std/math/bits"
	"github.com/consensys/gnark/std/math/emulated"
	"github.com/consensys/gnark/std/math/emulated/emparams"
	"github.com/consensys/gnark/std/math/uints"
)

// Circuit proves sha256(compress([HK]g)) == HW0 || HW1, where HW0 and HW1
// are the 16-byte big-endian halves of the digest.
type Circuit struct {
	HK emulated.Element[emparams.BLS12381Fr] `gnark:",secret"`

	HW0 frontend.Variable `gnark:",public"`
	HW1 frontend.Variable `gnark:",public"`
}

// halfP is (p-1)/2 as 48 big-endian bytes. y is the lexicographically
// largest root when y > halfP.
var halfP = func() []byte {
	h := new(big.Int).Rsh(fp.Modulus(), 1)
	return h.FillBytes(make([]byte, fp.Bytes))
}()

func (c *Circuit) Define(api frontend.API) error {
	curve, err := sw_emulated.New[emparams.BLS12381Fp, emparams.BLS12381Fr](api, sw_emulated.GetBLS12381Params())
	if err != nil {
		return fmt.Errorf("new curve: %w", err)
	}
	bapi, err := uints.NewBytes(api)
	if err != nil {
		return fmt.Errorf("new bytes: %w", err)
	}
	w := curve.ScalarMulBase(&c.HK)

	xb, err := conversion.EmulatedToBytes(api, &w.X)
	if err != nil {
		return fmt.Errorf("x to bytes: %w", err)
	}
	yb, err := conversion.EmulatedToBytes(api, &w.Y)
	if err != nil {
		return fmt.Errorf("y to bytes: %w", err)
	}
	if len(xb) != fp.Bytes || len(yb) != fp.Bytes {
		return fmt.Errorf("unexpected coordinate length: x=%d y=%d", len(xb), len(yb))
	}

	largest := isLargest(api, bapi, yb)
	compressed := make([]uints.U8, fp.Bytes)
	copy(compressed, xb)
	compressed[0] = bapi.Or(xb[0], bapi.ValueOf(0x80), bapi.ValueOf(api.Mul(largest, 0x20)))

	h, err := sha2.New(api)
	if err != nil {
		return fmt.Errorf("new sha2: %w", err)
	}
	h.Write(compressed)
	digest := h.Sum()

	hw0b, err := conversion.NativeToBytes(api, c.HW0)
	if err != nil {
		return fmt.Errorf("hw0 to bytes: %w", err)
	}
	hw1b, err := conversion.NativeToBytes(api, c.HW1)
	if err != nil {
		return fmt.Errorf("hw1 to bytes: %w", err)
	}
	// each half is a 16-byte integer, so the high bytes must be zero
	zero := bapi.ValueOf(0)
	for i := 0; i < 16; i++ {
		bapi.AssertIsEqual(hw0b[i], zero)
		bapi.AssertIsEqual(hw1b[i], zero)
	}
	public := append(hw0b[16:], hw1b[16:]...)
	if len(public) != len(digest) {
		return fmt.Errorf("digest length %d, public length %d", len(digest), len(public))
	}
	for i := range digest {
		bapi.AssertIsEqual(public[i], digest[i])
	}
	return nil
}

// isLargest returns 1 when the big-endian bytes y encode a value greater
// than (p-1)/2, comparing byte by byte from the most significant one.
func isLargest(api frontend.API, bapi *uints.Bytes, y []uints.U8) frontend.Variable {
	var gt frontend.Variable = 0
	var eq frontend.Variable = 1
	for i := range y {
		diff := api.Sub(bapi.Value(y[i]), halfP[i])
		// diff + 255 is in [0, 510]; bit 8 is set iff y[i] > halfP[i]
		byteGt := bits.ToBinary(api, api.Add(diff, 255), bits.WithNbDigits(9))[8]
		gt = api.Add(gt, api.Mul(eq, byteGt))
		eq = api.Mul(eq, api.IsZero(diff))
	}
	return gt
}
