package bls12381

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/logical-mechanism/peace-protocol/types"
	"github.com/vocdoni/arbo"
)

// ScalarSize is the length of a big-endian encoded scalar.
const ScalarSize = fr.Bytes

// Order returns the prime order r of G1, G2 and GT.
func Order() *big.Int {
	return fr.Modulus()
}

// ReduceScalar returns k mod r, always non-negative.
func ReduceScalar(k *big.Int) *big.Int {
	if k == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(arbo.BigToFF(fr.Modulus(), k))
}

// RandomScalar samples a uniform scalar in [1, r-1].
func RandomScalar() (*big.Int, error) {
	var e fr.Element
	for {
		if _, err := e.SetRandom(); err != nil {
			return nil, err
		}
		if !e.IsZero() {
			return e.BigInt(new(big.Int)), nil
		}
	}
}

// MustRandomScalar is RandomScalar for callers that cannot recover from a
// broken entropy source.
func MustRandomScalar() *big.Int {
	k, err := RandomScalar()
	if err != nil {
		panic(err)
	}
	return k
}

// ScalarFromBytes interprets b as a big-endian integer reduced mod r.
func ScalarFromBytes(b []byte) *big.Int {
	return ReduceScalar(new(big.Int).SetBytes(b))
}

// ScalarBytes returns the 32-byte big-endian encoding of k mod r.
func ScalarBytes(k *big.Int) []byte {
	out := make([]byte, ScalarSize)
	return ReduceScalar(k).FillBytes(out)
}

// ParseScalar checks that k is a canonical scalar, 0 <= k < r.
func ParseScalar(k *big.Int) (*big.Int, error) {
	if k == nil || k.Sign() < 0 || k.Cmp(fr.Modulus()) >= 0 {
		return nil, types.ErrInvalidScalar.With("scalar out of range")
	}
	return new(big.Int).Set(k), nil
}
