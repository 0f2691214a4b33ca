package bls12381

import (
	"math/big"

	bls "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
)

// GT is an element of the pairing target group.
type GT = bls.GT

// GTCoefficientSize is the length of one big-endian base field coefficient.
const GTCoefficientSize = fp.Bytes

// Pair computes the product of e(p[i], q[i]).
func Pair(p []G1, q []G2) (GT, error) {
	ps, qs := affines(p, q)
	return bls.Pair(ps, qs)
}

// PairingCheck reports whether the product of e(p[i], q[i]) is one.
func PairingCheck(p []G1, q []G2) (bool, error) {
	ps, qs := affines(p, q)
	return bls.PairingCheck(ps, qs)
}

// Div returns num / den in GT.
func Div(num, den GT) GT {
	var inv, out GT
	inv.Inverse(&den)
	out.Mul(&num, &inv)
	return out
}

func affines(p []G1, q []G2) ([]bls.G1Affine, []bls.G2Affine) {
	ps := make([]bls.G1Affine, len(p))
	for i := range p {
		ps[i] = p[i].p
	}
	qs := make([]bls.G2Affine, len(q))
	for i := range q {
		qs[i] = q[i].p
	}
	return ps, qs
}

// GTCoefficients returns the 12 base field coefficients of k in tower
// order: C0.B0.A0, C0.B0.A1, C0.B1.A0, ..., C1.B2.A1.
func GTCoefficients(k *GT) [12]*big.Int {
	coeffs := [12]*fp.Element{
		&k.C0.B0.A0, &k.C0.B0.A1, &k.C0.B1.A0, &k.C0.B1.A1, &k.C0.B2.A0, &k.C0.B2.A1,
		&k.C1.B0.A0, &k.C1.B0.A1, &k.C1.B1.A0, &k.C1.B1.A1, &k.C1.B2.A0, &k.C1.B2.A1,
	}
	var out [12]*big.Int
	for i, c := range coeffs {
		out[i] = c.BigInt(new(big.Int))
	}
	return out
}

// GTBytes returns the coefficients of k as 12 concatenated 48-byte
// big-endian integers.
func GTBytes(k *GT) []byte {
	out := make([]byte, 0, 12*GTCoefficientSize)
	for _, c := range GTCoefficients(k) {
		buf := make([]byte, GTCoefficientSize)
		out = append(out, c.FillBytes(buf)...)
	}
	return out
}
