package witnessderivation

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/emulated/fields_bls12381"
	"github.com/consensys/gnark/std/algebra/emulated/sw_bls12381"
	"github.com/consensys/gnark/std/conversion"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/consensys/gnark/std/math/bits"
	"github.com/consensys/gnark/std/math/emulated"
	"github.com/consensys/gnark/std/math/emulated/emparams"
	"github.com/consensys/gnark/std/math/uints"
	"github.com/logical-mechanism/peace-protocol/types"
)

// kappaElements maps the 12 tower coefficients of k to native field
// elements, each reduced mod r, in the order used outside the circuit.
func kappaElements(api frontend.API, k *sw_bls12381.GTEl) ([]frontend.Variable, error) {
	tower := fields_bls12381.NewExt12(api).ToTower(k)
	bapi, err := uints.NewBytes(api)
	if err != nil {
		return nil, fmt.Errorf("new bytes: %w", err)
	}
	elements := make([]frontend.Variable, 0, len(tower)+1)
	for i := range tower {
		be, err := conversion.EmulatedToBytes(api, tower[i])
		if err != nil {
			return nil, fmt.Errorf("coefficient %d to bytes: %w", i, err)
		}
		// little-endian bits of the big-endian byte string
		le := make([]frontend.Variable, 0, 8*len(be))
		for j := len(be) - 1; j >= 0; j-- {
			le = append(le, bits.ToBinary(api, bapi.Value(be[j]), bits.WithNbDigits(8))...)
		}
		elements = append(elements, bits.FromBinary(api, le))
	}
	return elements, nil
}

// kappaDigest returns hk as an emulated scalar.
func kappaDigest(api frontend.API, k *sw_bls12381.GTEl) (*emulated.Element[emparams.BLS12381Fr], error) {
	elements, err := kappaElements(api, k)
	if err != nil {
		return nil, err
	}
	elements = append(elements, new(big.Int).SetBytes([]byte(types.KappaTag)))

	h, err := mimc.NewMiMC(api)
	if err != nil {
		return nil, fmt.Errorf("new mimc: %w", err)
	}
	h.Write(elements...)
	digest := h.Sum()

	scalars, err := emulated.NewField[emparams.BLS12381Fr](api)
	if err != nil {
		return nil, fmt.Errorf("new scalar field: %w", err)
	}
	hk := scalars.FromBits(bits.ToBinary(api, digest, bits.WithNbDigits(256))...)
	return scalars.Reduce(hk), nil
}
