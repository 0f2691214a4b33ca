package reencrypt

import (
	"math/big"

	"github.com/logical-mechanism/peace-protocol/circuits/witnessderivation"
	"github.com/logical-mechanism/peace-protocol/crypto/binding"
	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/crypto/kappa"
	"github.com/logical-mechanism/peace-protocol/crypto/schnorr"
	"github.com/logical-mechanism/peace-protocol/level"
	"github.com/logical-mechanism/peace-protocol/register"
	"github.com/logical-mechanism/peace-protocol/types"
)

// Hop is the public record of one re-encryption: the delegator completes
// the level it holds and opens a new one for the recipient.
type Hop struct {
	Delegator    register.Register `json:"delegator" cbor:"0,keyasint"`
	Ownership    *schnorr.Proof    `json:"ownership" cbor:"1,keyasint"`
	Recipient    register.Register `json:"recipient" cbor:"2,keyasint"`
	PreviousKind level.Kind        `json:"previousKind" cbor:"3,keyasint"`
	Previous     level.FullLevel   `json:"previous" cbor:"4,keyasint"`
	Witness      Witness           `json:"witness" cbor:"5,keyasint"`
	Level        level.HalfLevel   `json:"level" cbor:"6,keyasint"`
	Binding      *binding.Proof    `json:"binding" cbor:"7,keyasint"`
	AssetID      types.HexBytes    `json:"assetId" cbor:"8,keyasint"`
}

// HopSecrets are the values only the delegator knows. They feed the
// witness-derivation proof and must never be published.
type HopSecrets struct {
	A  *big.Int
	R  *big.Int
	HK *big.Int
}

// CircuitInputs returns the witness-derivation inputs of the hop.
func (s *HopSecrets) CircuitInputs(h *Hop) *witnessderivation.Inputs {
	return &witnessderivation.Inputs{
		A:         s.A,
		R:         s.R,
		Recipient: h.Recipient.Public,
		Witness:   h.Witness.W,
		NewR2:     h.Level.R2,
	}
}

// randomHopSecret draws a scalar the witness-derivation circuit accepts.
func randomHopSecret() (*big.Int, error) {
	for {
		a, err := bls12381.RandomScalar()
		if err != nil {
			return nil, err
		}
		in := witnessderivation.Inputs{A: a, R: big.NewInt(1)}
		if in.Validate(witnessderivation.Policy{}) == nil {
			return a, nil
		}
	}
}

// NewHop re-encrypts the level the delegator holds to recipient.
// previousKind tells whether previous is the entry level or a hop level.
func NewHop(delegator *register.Identity, recipient register.Register, assetID []byte, previousKind level.Kind, previous level.HalfLevel) (*Hop, *HopSecrets, error) {
	if delegator == nil {
		return nil, nil, types.ErrInvalidArgument.With("delegator is required")
	}
	if len(assetID) == 0 {
		return nil, nil, types.ErrInvalidArgument.With("asset id is required")
	}
	if err := recipient.Validate(); err != nil {
		return nil, nil, err
	}
	if recipient.Public.Equal(delegator.Public) {
		return nil, nil, types.ErrInvalidArgument.With("recipient is the delegator")
	}
	if err := level.Check(previousKind, previous, assetID); err != nil {
		return nil, nil, err
	}
	ownership, err := schnorr.Prove(delegator)
	if err != nil {
		return nil, nil, err
	}
	a, err := randomHopSecret()
	if err != nil {
		return nil, nil, err
	}
	r, err := bls12381.RandomScalar()
	if err != nil {
		return nil, nil, err
	}
	hk, err := kappa.HK(a)
	if err != nil {
		return nil, nil, err
	}
	witness := NewWitness(delegator.Secret, hk)
	lvl, err := level.New(level.Hop, a, r, recipient, assetID)
	if err != nil {
		return nil, nil, err
	}
	bp, err := binding.Prove(binding.NewStatement(recipient, a, r, assetID), a, r)
	if err != nil {
		return nil, nil, err
	}
	hop := &Hop{
		Delegator:    delegator.Register,
		Ownership:    ownership,
		Recipient:    recipient,
		PreviousKind: previousKind,
		Previous:     previous.Complete(witness.R5),
		Witness:      witness,
		Level:        lvl,
		Binding:      bp,
		AssetID:      assetID,
	}
	return hop, &HopSecrets{A: a, R: r, HK: hk}, nil
}

// VerifyHop runs every native check of a hop. The witness-derivation proof
// that W comes from the new level secret is checked separately, with the
// binder tying its public inputs to Recipient, Witness.W and Level.R2.
func VerifyHop(h *Hop) error {
	if h == nil {
		return types.ErrInvalidArgument.With("nil hop")
	}
	if len(h.AssetID) == 0 {
		return types.ErrInvalidArgument.With("asset id is required")
	}
	if err := h.Delegator.Validate(); err != nil {
		return err
	}
	if err := h.Recipient.Validate(); err != nil {
		return err
	}
	if err := schnorr.Verify(h.Delegator, h.Ownership); err != nil {
		return err
	}
	if err := level.Check(h.PreviousKind, h.Previous.Half(), h.AssetID); err != nil {
		return err
	}
	if !h.Previous.R2G2.Equal(h.Witness.R5) {
		return types.ErrProofVerification.With("previous level is not completed by the disclosed witness")
	}
	if err := VerifyWitness(h.Witness, h.Delegator); err != nil {
		return err
	}
	if err := binding.Verify(levelStatement(h.Recipient, h.Level, h.AssetID), h.Binding); err != nil {
		return err
	}
	return level.Check(level.Hop, h.Level, h.AssetID)
}
