package ceremony

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/logical-mechanism/peace-protocol/circuits/testcircuit"
	"github.com/logical-mechanism/peace-protocol/circuits/witnessderivation"
	"github.com/logical-mechanism/peace-protocol/config"
	"github.com/logical-mechanism/peace-protocol/export"
	"github.com/logical-mechanism/peace-protocol/prover"
	"github.com/logical-mechanism/peace-protocol/types"
	"github.com/logical-mechanism/peace-protocol/verifier"
)

var beacon = []byte("public beacon")

func newTestCeremony(c *qt.C) *Ceremony {
	cer := New(filepath.Join(c.TempDir(), "ceremony"), WithCircuit(testcircuit.Compile))
	_, err := cer.Init(false)
	c.Assert(err, qt.IsNil)
	return cer
}

func contribute(c *qt.C, cer *Ceremony, phase, times int) {
	for i := 1; i <= times; i++ {
		idx, hash, err := cer.Contribute(phase)
		c.Assert(err, qt.IsNil)
		c.Assert(idx, qt.Equals, i)
		c.Assert(hash, qt.HasLen, 64)
	}
}

func TestFullCeremony(t *testing.T) {
	c := qt.New(t)
	cer := newTestCeremony(c)

	contribute(c, cer, 1, 2)
	n, err := cer.Verify(1)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 2)
	c.Assert(cer.Finalize(1, beacon), qt.IsNil)

	// phase 1 is closed once sealed
	_, _, err = cer.Contribute(1)
	c.Assert(err, qt.ErrorIs, types.ErrCeremonyState)
	c.Assert(cer.Finalize(1, beacon), qt.ErrorIs, types.ErrCeremonyState)

	contribute(c, cer, 2, 3)
	n, err = cer.Verify(2)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 3)
	c.Assert(cer.Finalize(2, beacon), qt.IsNil)

	for _, name := range []string{config.ProvingKeyFile, config.VerifyingKeyFile, config.VerifyingKeyJSONFile, config.CommonsFile} {
		_, err := os.Stat(filepath.Join(cer.Dir(), name))
		c.Assert(err, qt.IsNil, qt.Commentf(name))
	}
	c.Assert(cer.Finalize(2, beacon), qt.ErrorIs, types.ErrCeremonyState)
	_, _, err = cer.Contribute(2)
	c.Assert(err, qt.ErrorIs, types.ErrCeremonyState)

	// the sealed keys prove and verify
	s, err := prover.LoadSessionDir(context.Background(), cer.Dir(), witnessderivation.Policy{})
	c.Assert(err, qt.IsNil)
	proof, public, err := s.ProveAssignment(context.Background(), testcircuit.Assignment(12))
	c.Assert(err, qt.IsNil)
	b, err := s.Export(&prover.Bundle{Proof: proof, PublicWitness: public})
	c.Assert(err, qt.IsNil)
	c.Assert(verifier.VerifyBundle(b), qt.IsNil)

	// vk.json matches the sealed key
	var vkj export.VerifyingKey
	c.Assert(export.ReadJSON(filepath.Join(cer.Dir(), config.VerifyingKeyJSONFile), &vkj), qt.IsNil)
	c.Assert(&vkj, qt.DeepEquals, b.VerifyingKey)
}

func TestVerifyNeedsContribution(t *testing.T) {
	c := qt.New(t)
	cer := newTestCeremony(c)
	_, err := cer.Verify(1)
	c.Assert(err, qt.ErrorIs, types.ErrCeremonyChainBroken)
	c.Assert(cer.Finalize(1, beacon), qt.ErrorIs, types.ErrCeremonyChainBroken)
}

func TestPhaseOrder(t *testing.T) {
	c := qt.New(t)
	cer := newTestCeremony(c)
	_, _, err := cer.Contribute(2)
	c.Assert(err, qt.ErrorIs, types.ErrCeremonyState)
	c.Assert(cer.Finalize(2, beacon), qt.ErrorIs, types.ErrCeremonyState)

	_, _, err = cer.Contribute(3)
	c.Assert(err, qt.ErrorIs, types.ErrInvalidArgument)
	contribute(c, cer, 1, 1)
	c.Assert(cer.Finalize(1, nil), qt.ErrorIs, types.ErrInvalidArgument)
}

func TestMissingDirectory(t *testing.T) {
	c := qt.New(t)
	cer := New(filepath.Join(t.TempDir(), "nope"), WithCircuit(testcircuit.Compile))
	_, _, err := cer.Contribute(1)
	c.Assert(err, qt.ErrorIs, types.ErrCeremonyState)
	_, err = cer.Verify(1)
	c.Assert(err, qt.ErrorIs, types.ErrCeremonyState)
	c.Assert(cer.Finalize(1, beacon), qt.ErrorIs, types.ErrCeremonyState)
}

func TestBrokenChain(t *testing.T) {
	c := qt.New(t)
	cer := newTestCeremony(c)
	contribute(c, cer, 1, 2)

	// replace contribution 2 by one built on another chain
	other := newTestCeremony(c)
	contribute(c, other, 1, 2)
	foreign, err := os.ReadFile(other.contributionPath(1, 2))
	c.Assert(err, qt.IsNil)
	c.Assert(os.WriteFile(cer.contributionPath(1, 2), foreign, 0o644), qt.IsNil)

	_, err = cer.Verify(1)
	c.Assert(err, qt.ErrorIs, types.ErrCeremonyChainBroken)
	c.Assert(err, qt.ErrorMatches, ".*contribution 2.*")
	c.Assert(cer.Finalize(1, beacon), qt.ErrorIs, types.ErrCeremonyChainBroken)

	// a gap in the indices is also a broken chain
	c.Assert(os.Remove(cer.contributionPath(1, 1)), qt.IsNil)
	_, err = cer.Verify(1)
	c.Assert(err, qt.ErrorIs, types.ErrCeremonyChainBroken)
}

func TestInitForce(t *testing.T) {
	c := qt.New(t)
	cer := newTestCeremony(c)
	contribute(c, cer, 1, 2)

	_, err := cer.Init(false)
	c.Assert(err, qt.ErrorIs, types.ErrCeremonyState)

	info, err := cer.Init(true)
	c.Assert(err, qt.IsNil)
	c.Assert(info.DomainSize >= uint64(info.Constraints), qt.IsTrue)
	paths, err := cer.contributions(1)
	c.Assert(err, qt.IsNil)
	c.Assert(paths, qt.HasLen, 1)
}

func TestContributionIndexNeverReused(t *testing.T) {
	c := qt.New(t)
	cer := newTestCeremony(c)
	contribute(c, cer, 1, 1)
	err := writeExclusive(cer.contributionPath(1, 1), &fakeWriter{})
	c.Assert(err, qt.ErrorIs, types.ErrCeremonyState)
}

type fakeWriter struct{}

func (fakeWriter) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write([]byte("x"))
	return int64(n), err
}
