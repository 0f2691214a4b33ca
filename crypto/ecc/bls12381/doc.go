// Package bls12381 wraps the gnark-crypto BLS12-381 implementation with the
// validated point types used across the protocol. A G1 or G2 value can only
// be built by decoding a compressed encoding, by checking an affine point or
// by group operations on already valid points, so any function receiving one
// can rely on it being on the curve and in the prime order subgroup.
package bls12381
