package reencrypt

import (
	"github.com/logical-mechanism/peace-protocol/crypto/binding"
	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/crypto/ecies"
	"github.com/logical-mechanism/peace-protocol/crypto/kappa"
	"github.com/logical-mechanism/peace-protocol/crypto/schnorr"
	"github.com/logical-mechanism/peace-protocol/level"
	"github.com/logical-mechanism/peace-protocol/register"
	"github.com/logical-mechanism/peace-protocol/types"
)

// Entry is the public record that creates an asset.
type Entry struct {
	Owner     register.Register `json:"owner" cbor:"0,keyasint"`
	Ownership *schnorr.Proof    `json:"ownership" cbor:"1,keyasint"`
	Level     level.HalfLevel   `json:"level" cbor:"2,keyasint"`
	Binding   *binding.Proof    `json:"binding" cbor:"3,keyasint"`
	Capsule   *ecies.Capsule    `json:"capsule" cbor:"4,keyasint"`
	AssetID   types.HexBytes    `json:"assetId" cbor:"5,keyasint"`
}

// NewEntry creates the entry level of a new asset owned by owner and seals
// plaintext under the digest of its fresh secret a0.
func NewEntry(owner *register.Identity, assetID, plaintext []byte) (*Entry, error) {
	if owner == nil {
		return nil, types.ErrInvalidArgument.With("owner is required")
	}
	if len(assetID) == 0 {
		return nil, types.ErrInvalidArgument.With("asset id is required")
	}
	a0, err := bls12381.RandomScalar()
	if err != nil {
		return nil, err
	}
	r0, err := bls12381.RandomScalar()
	if err != nil {
		return nil, err
	}
	ownership, err := schnorr.Prove(owner)
	if err != nil {
		return nil, err
	}
	lvl, err := level.New(level.Entry, a0, r0, owner.Register, assetID)
	if err != nil {
		return nil, err
	}
	bp, err := binding.Prove(binding.NewStatement(owner.Register, a0, r0, assetID), a0, r0)
	if err != nil {
		return nil, err
	}
	hk, err := kappa.HK(a0)
	if err != nil {
		return nil, err
	}
	capsule, err := ecies.Encrypt(lvl.R1.Bytes(), kappa.Bytes(hk), plaintext)
	if err != nil {
		return nil, err
	}
	return &Entry{
		Owner:     owner.Register,
		Ownership: ownership,
		Level:     lvl,
		Binding:   bp,
		Capsule:   capsule,
		AssetID:   assetID,
	}, nil
}

func levelStatement(recipient register.Register, h level.HalfLevel, assetID []byte) binding.Statement {
	return binding.Statement{Recipient: recipient, Point1: h.R1, Point2: h.R2, AssetID: assetID}
}

// VerifyEntry runs every native check of an entry: the owner register and
// its Schnorr proof, the binding proof and the entry consistency equation.
func VerifyEntry(e *Entry) error {
	if e == nil {
		return types.ErrInvalidArgument.With("nil entry")
	}
	if len(e.AssetID) == 0 {
		return types.ErrInvalidArgument.With("asset id is required")
	}
	if err := e.Owner.Validate(); err != nil {
		return err
	}
	if err := schnorr.Verify(e.Owner, e.Ownership); err != nil {
		return err
	}
	if err := binding.Verify(levelStatement(e.Owner, e.Level, e.AssetID), e.Binding); err != nil {
		return err
	}
	return level.Check(level.Entry, e.Level, e.AssetID)
}
