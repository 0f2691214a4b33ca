package types

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// BigInt wraps math/big.Int to encode as a decimal string in JSON and as a
// CBOR bignum.
type BigInt big.Int

// NewInt returns a BigInt holding x.
func NewInt(x int64) *BigInt {
	return (*BigInt)(big.NewInt(x))
}

// MathBigInt returns the underlying value.
func (i *BigInt) MathBigInt() *big.Int {
	return (*big.Int)(i)
}

func (i *BigInt) String() string {
	return (*big.Int)(i).String()
}

// Equal reports whether both values hold the same integer.
func (i *BigInt) Equal(j *BigInt) bool {
	return (*big.Int)(i).Cmp((*big.Int)(j)) == 0
}

func (i *BigInt) MarshalText() ([]byte, error) {
	return (*big.Int)(i).MarshalText()
}

func (i *BigInt) UnmarshalText(data []byte) error {
	if _, ok := (*big.Int)(i).SetString(string(data), 0); !ok {
		return ErrMalformedEncoding.Withf("invalid integer %q", data)
	}
	return nil
}

func (i *BigInt) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal((*big.Int)(i))
}

func (i *BigInt) UnmarshalCBOR(data []byte) error {
	v := new(big.Int)
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode big int: %w", err)
	}
	(*big.Int)(i).Set(v)
	return nil
}
