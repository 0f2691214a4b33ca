// Package register holds the public key pairs of the protocol and the
// checks that keep degenerate keys out of every downstream proof.
package register

import (
	"math/big"

	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/crypto/hash/transcript"
	"github.com/logical-mechanism/peace-protocol/types"
)

// Register is a public key u = [sk]g together with its generator.
type Register struct {
	Generator bls12381.G1 `json:"generator" cbor:"0,keyasint"`
	Public    bls12381.G1 `json:"public" cbor:"1,keyasint"`
}

// New returns the register of public value u under the canonical generator.
func New(u bls12381.G1) Register {
	return Register{Generator: bls12381.G1Generator(), Public: u}
}

// Validate checks, in order, that the generator is canonical, that the
// public value is not the identity and that it differs from the generator.
func (r Register) Validate() error {
	if !r.Generator.Equal(bls12381.G1Generator()) {
		return types.ErrInvalidRegister.With("generator is not the canonical G1 generator")
	}
	if r.Public.IsInfinity() {
		return types.ErrInvalidRegister.With("public value is the identity")
	}
	if r.Public.Equal(r.Generator) {
		return types.ErrInvalidRegister.With("public value equals the generator")
	}
	return nil
}

// IsValid is the boolean form of Validate.
func (r Register) IsValid() bool {
	return r.Validate() == nil
}

// Identity is a register together with its secret.
type Identity struct {
	Register
	Secret *big.Int `json:"-" cbor:"-"`
}

// NewIdentity builds the identity of secret sk. The resulting register must
// be valid, which excludes sk = 0 and sk = 1 mod r.
func NewIdentity(sk *big.Int) (*Identity, error) {
	sk = bls12381.ReduceScalar(sk)
	id := &Identity{
		Register: New(bls12381.G1BaseMul(sk)),
		Secret:   sk,
	}
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return id, nil
}

// RandomIdentity samples a fresh identity.
func RandomIdentity() (*Identity, error) {
	for {
		sk, err := bls12381.RandomScalar()
		if err != nil {
			return nil, err
		}
		if id, err := NewIdentity(sk); err == nil {
			return id, nil
		}
	}
}

// SecretFromWalletKey derives a BLS12-381 secret from wallet key material as
// H(tag || key). The same wallet key always yields the same identity.
func SecretFromWalletKey(key []byte) *big.Int {
	return transcript.HashToScalar(types.WalletKeyTag, key)
}

// FromWalletKey is NewIdentity over SecretFromWalletKey.
func FromWalletKey(key []byte) (*Identity, error) {
	if len(key) == 0 {
		return nil, types.ErrInvalidArgument.With("empty wallet key")
	}
	return NewIdentity(SecretFromWalletKey(key))
}
