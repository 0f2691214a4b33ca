// Package ecies seals the asset payload under the key recovered at the end
// of a decryption chain. The key encapsulation material is the hop digest of
// the entry level and the context binds the capsule to that level's r1:
//
//	salt = H(SLT || context || KEM)
//	key  = HKDF-SHA3-256(kem, salt, info = KEM, 32 bytes)
//	aad  = H(AAD || context || MSG)
//
// sealed with AES-256-GCM under a random 96-bit nonce.
package ecies

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/logical-mechanism/peace-protocol/crypto/hash/transcript"
	"github.com/logical-mechanism/peace-protocol/types"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

const (
	// KeySize is the AES-256 key length.
	KeySize = 32
	// NonceSize is the GCM nonce length.
	NonceSize = 12
)

// Capsule is a sealed payload.
type Capsule struct {
	Nonce      types.HexBytes `json:"nonce" cbor:"0,keyasint"`
	AAD        types.HexBytes `json:"aad" cbor:"1,keyasint"`
	Ciphertext types.HexBytes `json:"ciphertext" cbor:"2,keyasint"`
}

// DeriveKey expands the encapsulation material into the AES key.
func DeriveKey(context, kem []byte) ([]byte, error) {
	salt := transcript.Digest(types.EciesSaltTag, context, []byte(types.EciesKemTag))
	r := hkdf.New(sha3.New256, kem, salt, []byte(types.EciesKemTag))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return key, nil
}

// AAD returns the associated data of a capsule for the given context.
func AAD(context []byte) []byte {
	return transcript.Digest(types.EciesAADTag, context, []byte(types.EciesMsgTag))
}

func newGCM(context, kem []byte) (cipher.AEAD, error) {
	if len(kem) == 0 {
		return nil, types.ErrInvalidArgument.With("empty encapsulation material")
	}
	key, err := DeriveKey(context, kem)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals msg.
func Encrypt(context, kem, msg []byte) (*Capsule, error) {
	gcm, err := newGCM(context, kem)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	aad := AAD(context)
	return &Capsule{
		Nonce:      nonce,
		AAD:        aad,
		Ciphertext: gcm.Seal(nil, nonce, msg, aad),
	}, nil
}

// Decrypt opens the capsule. The stored associated data must match the one
// derived from the context.
func Decrypt(context, kem []byte, capsule *Capsule) ([]byte, error) {
	if capsule == nil || len(capsule.Nonce) != NonceSize {
		return nil, types.ErrMalformedEncoding.With("invalid capsule nonce")
	}
	aad := AAD(context)
	if !bytes.Equal(aad, capsule.AAD) {
		return nil, types.ErrProofVerification.With("capsule bound to another context")
	}
	gcm, err := newGCM(context, kem)
	if err != nil {
		return nil, err
	}
	msg, err := gcm.Open(nil, capsule.Nonce, capsule.Ciphertext, aad)
	if err != nil {
		return nil, types.ErrProofVerification.WithErr(err)
	}
	return msg, nil
}
