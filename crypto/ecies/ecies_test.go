package ecies

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/logical-mechanism/peace-protocol/types"
	"github.com/logical-mechanism/peace-protocol/util"
)

func TestEncryptDecrypt(t *testing.T) {
	c := qt.New(t)
	context := util.RandomBytes(48)
	kem := util.RandomBytes(32)
	msg := []byte("the plaintext of a peace asset")

	capsule, err := Encrypt(context, kem, msg)
	c.Assert(err, qt.IsNil)
	c.Assert(capsule.Nonce, qt.HasLen, NonceSize)
	c.Assert(capsule.Ciphertext, qt.HasLen, len(msg)+16)

	got, err := Decrypt(context, kem, capsule)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, msg)
}

func TestDecryptFailures(t *testing.T) {
	c := qt.New(t)
	context := util.RandomBytes(48)
	kem := util.RandomBytes(32)
	capsule, err := Encrypt(context, kem, []byte("payload"))
	c.Assert(err, qt.IsNil)

	_, err = Decrypt(context, util.RandomBytes(32), capsule)
	c.Assert(errors.Is(err, types.ErrProofVerification), qt.IsTrue)

	_, err = Decrypt(util.RandomBytes(48), kem, capsule)
	c.Assert(errors.Is(err, types.ErrProofVerification), qt.IsTrue)

	tampered := *capsule
	tampered.Ciphertext = append(types.HexBytes{}, capsule.Ciphertext...)
	tampered.Ciphertext[0] ^= 1
	_, err = Decrypt(context, kem, &tampered)
	c.Assert(errors.Is(err, types.ErrProofVerification), qt.IsTrue)

	tampered = *capsule
	tampered.Nonce = tampered.Nonce[:4]
	_, err = Decrypt(context, kem, &tampered)
	c.Assert(errors.Is(err, types.ErrMalformedEncoding), qt.IsTrue)

	_, err = Encrypt(context, nil, []byte("x"))
	c.Assert(errors.Is(err, types.ErrInvalidArgument), qt.IsTrue)
}

func TestKeyDerivationIsDeterministic(t *testing.T) {
	c := qt.New(t)
	k1, err := DeriveKey([]byte("ctx"), []byte("kem"))
	c.Assert(err, qt.IsNil)
	k2, err := DeriveKey([]byte("ctx"), []byte("kem"))
	c.Assert(err, qt.IsNil)
	c.Assert(k1, qt.DeepEquals, k2)
	k3, err := DeriveKey([]byte("ctx2"), []byte("kem"))
	c.Assert(err, qt.IsNil)
	c.Assert(k1, qt.Not(qt.DeepEquals), k3)
}
