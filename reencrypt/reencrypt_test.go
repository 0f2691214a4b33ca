package reencrypt

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/crypto/kappa"
	"github.com/logical-mechanism/peace-protocol/level"
	"github.com/logical-mechanism/peace-protocol/register"
	"github.com/logical-mechanism/peace-protocol/types"
)

var (
	assetID = []byte("peace-asset-0001")
	payload = []byte("the quick brown fox jumps over the lazy dog")
)

func identity(c *qt.C) *register.Identity {
	id, err := register.RandomIdentity()
	c.Assert(err, qt.IsNil)
	return id
}

func TestEntryOpensForOwner(t *testing.T) {
	c := qt.New(t)
	alice := identity(c)
	e, err := NewEntry(alice, assetID, payload)
	c.Assert(err, qt.IsNil)
	c.Assert(VerifyEntry(e), qt.IsNil)

	got, err := OpenCapsule(alice, e.Level, nil, e.Capsule)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, payload)

	_, err = OpenCapsule(identity(c), e.Level, nil, e.Capsule)
	c.Assert(err, qt.IsNotNil)
}

func TestEntryRejectsTampering(t *testing.T) {
	c := qt.New(t)
	alice := identity(c)
	e, err := NewEntry(alice, assetID, payload)
	c.Assert(err, qt.IsNil)

	bad := *e
	bad.AssetID = []byte("another-asset")
	c.Assert(errors.Is(VerifyEntry(&bad), types.ErrProofVerification), qt.IsTrue)

	bad = *e
	bad.Owner = identity(c).Register
	c.Assert(errors.Is(VerifyEntry(&bad), types.ErrProofVerification), qt.IsTrue)

	bad = *e
	bad.Level.R4 = bad.Level.R4.Add(bls12381.H0())
	c.Assert(errors.Is(VerifyEntry(&bad), types.ErrProofVerification), qt.IsTrue)

	bad = *e
	bad.Owner.Public = bls12381.G1{}
	c.Assert(errors.Is(VerifyEntry(&bad), types.ErrInvalidRegister), qt.IsTrue)

	_, err = NewEntry(alice, nil, payload)
	c.Assert(errors.Is(err, types.ErrInvalidArgument), qt.IsTrue)
}

func TestHopChain(t *testing.T) {
	c := qt.New(t)
	alice, bob, carol := identity(c), identity(c), identity(c)

	e, err := NewEntry(alice, assetID, payload)
	c.Assert(err, qt.IsNil)

	h1, s1, err := NewHop(alice, bob.Register, assetID, level.Entry, e.Level)
	c.Assert(err, qt.IsNil)
	c.Assert(VerifyHop(h1), qt.IsNil)
	c.Assert(s1.CircuitInputs(h1).Check(), qt.IsNil)

	hk, err := kappa.HK(s1.A)
	c.Assert(err, qt.IsNil)
	c.Assert(hk.Cmp(s1.HK), qt.Equals, 0)

	got, err := OpenCapsule(bob, h1.Level, []level.FullLevel{h1.Previous}, e.Capsule)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, payload)

	h2, s2, err := NewHop(bob, carol.Register, assetID, level.Hop, h1.Level)
	c.Assert(err, qt.IsNil)
	c.Assert(VerifyHop(h2), qt.IsNil)
	c.Assert(s2.CircuitInputs(h2).Check(), qt.IsNil)

	history := []level.FullLevel{h2.Previous, h1.Previous}
	got, err = OpenCapsule(carol, h2.Level, history, e.Capsule)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, payload)

	digest, context, err := RecursiveDecrypt(carol.Secret, h2.Level, history)
	c.Assert(err, qt.IsNil)
	c.Assert(context.Equal(e.Level.R1), qt.IsTrue)
	entryDigest, err := DecryptHalf(e.Level, SharedFromSecret(alice.Secret))
	c.Assert(err, qt.IsNil)
	c.Assert(digest.Cmp(entryDigest), qt.Equals, 0)

	// a previous holder can no longer follow the newest level
	_, err = OpenCapsule(bob, h2.Level, history, e.Capsule)
	c.Assert(err, qt.IsNotNil)
}

func TestHopRejectsTampering(t *testing.T) {
	c := qt.New(t)
	alice, bob := identity(c), identity(c)
	e, err := NewEntry(alice, assetID, payload)
	c.Assert(err, qt.IsNil)
	h, _, err := NewHop(alice, bob.Register, assetID, level.Entry, e.Level)
	c.Assert(err, qt.IsNil)

	for name, mutate := range map[string]func(*Hop){
		"witness W":      func(h *Hop) { h.Witness.W = h.Witness.W.Add(bls12381.G1Generator()) },
		"witness R5":     func(h *Hop) { h.Witness.R5 = h.Witness.R5.Add(bls12381.P()) },
		"previous R5":    func(h *Hop) { h.Previous.R2G2 = h.Previous.R2G2.Add(bls12381.P()) },
		"previous kind":  func(h *Hop) { h.PreviousKind = level.Hop },
		"new level":      func(h *Hop) { h.Level.R2 = h.Level.R2.Add(bls12381.G1Generator()) },
		"delegator":      func(h *Hop) { h.Delegator = bob.Register },
		"asset":          func(h *Hop) { h.AssetID = []byte("another-asset") },
		"identity W":     func(h *Hop) { h.Witness.W = bls12381.G1{} },
		"binding points": func(h *Hop) { h.Level.R1 = h.Level.R1.Add(bls12381.G1Generator()) },
	} {
		bad := *h
		mutate(&bad)
		err := VerifyHop(&bad)
		c.Assert(errors.Is(err, types.ErrProofVerification), qt.IsTrue, qt.Commentf("%s: %v", name, err))
	}
}

func TestNewHopArguments(t *testing.T) {
	c := qt.New(t)
	alice := identity(c)
	e, err := NewEntry(alice, assetID, payload)
	c.Assert(err, qt.IsNil)

	_, _, err = NewHop(alice, alice.Register, assetID, level.Entry, e.Level)
	c.Assert(errors.Is(err, types.ErrInvalidArgument), qt.IsTrue)

	_, _, err = NewHop(alice, register.Register{}, assetID, level.Entry, e.Level)
	c.Assert(errors.Is(err, types.ErrInvalidRegister), qt.IsTrue)

	_, _, err = NewHop(alice, identity(c).Register, assetID, level.Hop, e.Level)
	c.Assert(errors.Is(err, types.ErrProofVerification), qt.IsTrue)
}

func TestWitnessRelation(t *testing.T) {
	c := qt.New(t)
	alice := identity(c)
	hk := bls12381.MustRandomScalar()
	w := NewWitness(alice.Secret, hk)
	c.Assert(VerifyWitness(w, alice.Register), qt.IsNil)

	err := VerifyWitness(w, identity(c).Register)
	c.Assert(errors.Is(err, types.ErrProofVerification), qt.IsTrue)

	w2 := NewWitness(alice.Secret, hk)
	w2.W = bls12381.G1BaseMul(bls12381.MustRandomScalar())
	err = VerifyWitness(w2, alice.Register)
	c.Assert(errors.Is(err, types.ErrProofVerification), qt.IsTrue)
}
