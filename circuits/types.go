package circuits

import (
	"fmt"
	"math/big"

	"github.com/logical-mechanism/peace-protocol/types"
)

const (
	// FpLimbs is the number of limbs of an emulated BLS12-381 base field
	// element.
	FpLimbs = 6
	// LimbBits is the width of each limb.
	LimbBits = 64
)

var limbMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), LimbBits), big.NewInt(1))

// FpToLimbs splits x into FpLimbs little-endian limbs.
func FpToLimbs(x *big.Int) []*big.Int {
	limbs := make([]*big.Int, FpLimbs)
	v := new(big.Int).Set(x)
	for i := range limbs {
		limbs[i] = new(big.Int).And(v, limbMask)
		v.Rsh(v, LimbBits)
	}
	return limbs
}

// LimbsToFp joins FpLimbs little-endian limbs. Every limb must fit in
// LimbBits bits.
func LimbsToFp(limbs []*big.Int) (*big.Int, error) {
	if len(limbs) != FpLimbs {
		return nil, types.ErrMalformedEncoding.Withf("got %d limbs, want %d", len(limbs), FpLimbs)
	}
	x := new(big.Int)
	for i := len(limbs) - 1; i >= 0; i-- {
		l := limbs[i]
		if l == nil || l.Sign() < 0 || l.BitLen() > LimbBits {
			return nil, types.ErrMalformedEncoding.With(fmt.Sprintf("limb %d out of range", i))
		}
		x.Lsh(x, LimbBits).Or(x, l)
	}
	return x, nil
}
