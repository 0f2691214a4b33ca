package reencrypt

import (
	"math/big"

	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/crypto/ecies"
	"github.com/logical-mechanism/peace-protocol/crypto/kappa"
	"github.com/logical-mechanism/peace-protocol/level"
	"github.com/logical-mechanism/peace-protocol/register"
	"github.com/logical-mechanism/peace-protocol/types"
)

// SharedFromSecret returns [sk]h0, the shared point a holder uses on the
// newest level.
func SharedFromSecret(sk *big.Int) bls12381.G2 {
	return bls12381.H0().Mul(sk)
}

// SharedFromDigest returns [digest]p, the shared point used on a completed
// level once the digest of the level after it is known.
func SharedFromDigest(digest *big.Int) bls12381.G2 {
	return bls12381.P().Mul(digest)
}

// DecryptHalf recovers the digest of a half level:
//
//	k = e(r2, h0) / e(r1, shared)
func DecryptHalf(h level.HalfLevel, shared bls12381.G2) (*big.Int, error) {
	num, err := bls12381.Pair([]bls12381.G1{h.R2}, []bls12381.G2{bls12381.H0()})
	if err != nil {
		return nil, err
	}
	return digestOf(num, h.R1, shared)
}

// DecryptFull recovers the digest of a completed level:
//
//	k = e(r2_g1, h0) * e(r1, r2_g2) / e(r1, shared)
func DecryptFull(f level.FullLevel, shared bls12381.G2) (*big.Int, error) {
	num, err := bls12381.Pair([]bls12381.G1{f.R2G1, f.R1}, []bls12381.G2{bls12381.H0(), f.R2G2})
	if err != nil {
		return nil, err
	}
	return digestOf(num, f.R1, shared)
}

func digestOf(num bls12381.GT, r1 bls12381.G1, shared bls12381.G2) (*big.Int, error) {
	den, err := bls12381.Pair([]bls12381.G1{r1}, []bls12381.G2{shared})
	if err != nil {
		return nil, err
	}
	k := bls12381.Div(num, den)
	return kappa.Digest(&k), nil
}

// RecursiveDecrypt walks the chain of an asset from the newest level,
// decrypted with the holder secret sk, down to the entry level. history
// holds the completed levels newest first; it is empty when the newest
// level is the entry. It returns the entry digest, which keys the capsule,
// and the entry r1, its context.
func RecursiveDecrypt(sk *big.Int, latest level.HalfLevel, history []level.FullLevel) (*big.Int, bls12381.G1, error) {
	digest, err := DecryptHalf(latest, SharedFromSecret(sk))
	if err != nil {
		return nil, bls12381.G1{}, err
	}
	context := latest.R1
	for _, f := range history {
		if digest, err = DecryptFull(f, SharedFromDigest(digest)); err != nil {
			return nil, bls12381.G1{}, err
		}
		context = f.R1
	}
	return digest, context, nil
}

// OpenCapsule recovers the payload for the current holder.
func OpenCapsule(holder *register.Identity, latest level.HalfLevel, history []level.FullLevel, capsule *ecies.Capsule) ([]byte, error) {
	if holder == nil || holder.Secret == nil {
		return nil, types.ErrInvalidArgument.With("holder secret is required")
	}
	digest, context, err := RecursiveDecrypt(holder.Secret, latest, history)
	if err != nil {
		return nil, err
	}
	return ecies.Decrypt(context.Bytes(), kappa.Bytes(digest), capsule)
}
