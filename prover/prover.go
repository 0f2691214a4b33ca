// Package prover holds a loaded Groth16 setup for the witness-derivation
// or the witness-commit circuit and produces exportable, checked proofs
// with it.
package prover

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/logical-mechanism/peace-protocol/binder"
	"github.com/logical-mechanism/peace-protocol/circuits"
	"github.com/logical-mechanism/peace-protocol/circuits/witnesscommit"
	"github.com/logical-mechanism/peace-protocol/circuits/witnessderivation"
	"github.com/logical-mechanism/peace-protocol/config"
	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/export"
	"github.com/logical-mechanism/peace-protocol/log"
	"github.com/logical-mechanism/peace-protocol/types"
)

// Session is a constraint system with its keys. It is not modified after
// construction, so Prove may be called from several goroutines.
type Session struct {
	ccs    constraint.ConstraintSystem
	pk     groth16.ProvingKey
	vk     groth16.VerifyingKey
	policy witnessderivation.Policy
}

// Bundle is a proof with its public witness and the points it is about.
type Bundle struct {
	Proof         groth16.Proof
	PublicWitness witness.Witness
	Points        binder.Points
}

// CommitBundle is a witness-commit proof with its public witness and the
// witness point whose digest it carries.
type CommitBundle struct {
	Proof         groth16.Proof
	PublicWitness witness.Witness
	Witness       bls12381.G1
}

// NewSession wraps already decoded setup artifacts.
func NewSession(ccs constraint.ConstraintSystem, pk groth16.ProvingKey, vk groth16.VerifyingKey, policy witnessderivation.Policy) (*Session, error) {
	if ccs == nil || pk == nil || vk == nil {
		return nil, types.ErrInvalidArgument.With("constraint system, proving key and verifying key are required")
	}
	if ccs.Field().Cmp(ecc.BLS12_381.ScalarField()) != 0 || pk.CurveID() != ecc.BLS12_381 || vk.CurveID() != ecc.BLS12_381 {
		return nil, types.ErrSetupArtifactCorrupt.With("setup artifacts are not over BLS12-381")
	}
	n, err := export.NbPublic(vk)
	if err != nil {
		return nil, err
	}
	if want := ccs.GetNbPublicVariables() - 1; n != want {
		return nil, types.ErrSetupArtifactCorrupt.Withf("verifying key expects %d public inputs, constraint system has %d", n, want)
	}
	return &Session{ccs: ccs, pk: pk, vk: vk, policy: policy}, nil
}

// LoadSession loads and decodes the setup artifacts.
func LoadSession(ctx context.Context, sa *circuits.SetupArtifacts, policy witnessderivation.Policy) (*Session, error) {
	if err := sa.LoadAll(ctx); err != nil {
		return nil, err
	}
	ccs := groth16.NewCS(ecc.BLS12_381)
	if _, err := ccs.ReadFrom(sa.ConstraintSystem.Reader()); err != nil {
		return nil, types.ErrSetupArtifactCorrupt.Withf("constraint system: %v", err)
	}
	pk := groth16.NewProvingKey(ecc.BLS12_381)
	if _, err := pk.ReadFrom(sa.ProvingKey.Reader()); err != nil {
		return nil, types.ErrSetupArtifactCorrupt.Withf("proving key: %v", err)
	}
	vk := groth16.NewVerifyingKey(ecc.BLS12_381)
	if _, err := vk.ReadFrom(sa.VerifyingKey.Reader()); err != nil {
		return nil, types.ErrSetupArtifactCorrupt.Withf("verifying key: %v", err)
	}
	log.Debugw("prover session loaded", "constraints", ccs.GetNbConstraints())
	return NewSession(ccs, pk, vk, policy)
}

// LoadSessionDir loads the setup files stored in dir.
func LoadSessionDir(ctx context.Context, dir string, policy witnessderivation.Policy) (*Session, error) {
	return LoadSession(ctx, circuits.NewSetupArtifacts(dir), policy)
}

// DevSession compiles the circuit and runs a single-party setup. The
// toxic waste is known to this process: use it for tests only.
func DevSession(policy witnessderivation.Policy) (*Session, error) {
	return DevSessionFor(witnessderivation.Compile, policy)
}

// DevSessionFor is DevSession for any circuit.
func DevSessionFor(compile func() (constraint.ConstraintSystem, error), policy witnessderivation.Policy) (*Session, error) {
	startTime := time.Now()
	ccs, err := compile()
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	log.Infow("circuit compiled", "constraints", ccs.GetNbConstraints(), "took", time.Since(startTime).String())
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	log.Warnw("development setup created, do not use it in production", "took", time.Since(startTime).String())
	return NewSession(ccs, pk, vk, policy)
}

// Save writes the three setup files into dir.
func (s *Session) Save(dir string) error {
	if err := circuits.StoreConstraintSystem(s.ccs, filepath.Join(dir, config.ConstraintSystemFile)); err != nil {
		return err
	}
	if err := circuits.StoreProvingKey(s.pk, filepath.Join(dir, config.ProvingKeyFile)); err != nil {
		return err
	}
	return circuits.StoreVerifyingKey(s.vk, filepath.Join(dir, config.VerifyingKeyFile))
}

// VerifyingKey returns the session verifying key.
func (s *Session) VerifyingKey() groth16.VerifyingKey {
	return s.vk
}

// Policy returns the numeric policy applied to the secrets.
func (s *Session) Policy() witnessderivation.Policy {
	return s.policy
}

// ProveAssignment proves any full assignment of the session circuit.
func (s *Session) ProveAssignment(ctx context.Context, assignment frontend.Circuit) (groth16.Proof, witness.Witness, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	full, err := frontend.NewWitness(assignment, ecc.BLS12_381.ScalarField())
	if err != nil {
		return nil, nil, types.ErrInvalidArgument.Withf("witness: %v", err)
	}
	public, err := full.Public()
	if err != nil {
		return nil, nil, types.ErrInvalidArgument.Withf("public witness: %v", err)
	}
	startTime := time.Now()
	proof, err := groth16.Prove(s.ccs, s.pk, full)
	if err != nil {
		return nil, nil, types.ErrCircuitUnsatisfiable.WithErr(err)
	}
	log.Debugw("proof generated", "took", time.Since(startTime).String())
	return proof, public, nil
}

// Prove validates the inputs against the session policy, checks the
// relation natively and proves it.
func (s *Session) Prove(ctx context.Context, in *witnessderivation.Inputs) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, types.ErrInvalidArgument.With("nil inputs")
	}
	if got := s.ccs.GetNbPublicVariables() - 1; got != witnessderivation.NbPublicInputs {
		return nil, types.ErrSetupArtifactCorrupt.Withf("session circuit has %d public inputs, not a witness-derivation circuit", got)
	}
	if err := in.Validate(s.policy); err != nil {
		return nil, err
	}
	if in.Recipient.IsInfinity() || in.Witness.IsInfinity() || in.NewR2.IsInfinity() {
		return nil, types.ErrInvalidArgument.With("public points must not be the identity")
	}
	if err := in.Check(); err != nil {
		return nil, err
	}
	proof, public, err := s.ProveAssignment(ctx, in.Assignment())
	if err != nil {
		return nil, err
	}
	return &Bundle{
		Proof:         proof,
		PublicWitness: public,
		Points:        binder.Points{Recipient: in.Recipient, Witness: in.Witness, NewR2: in.NewR2},
	}, nil
}

// Verify checks the proof with gnark and binds its public inputs to the
// declared points.
func (s *Session) Verify(b *Bundle) error {
	if b == nil {
		return types.ErrInvalidArgument.With("nil bundle")
	}
	if err := groth16.Verify(b.Proof, s.vk, b.PublicWitness); err != nil {
		return types.ErrProofVerification.WithErr(err)
	}
	vec, err := export.PublicVector(b.PublicWitness)
	if err != nil {
		return err
	}
	return binder.CheckVector(vec, b.Points)
}

// Export converts the bundle to the on-chain documents.
func (s *Session) Export(b *Bundle) (*export.Bundle, error) {
	return export.NewBundle(s.vk, b.Proof, b.PublicWitness)
}

// ProveWitnessCommit checks hk against the witness natively and proves the
// digest relation. The session must hold a witness-commit setup.
func (s *Session) ProveWitnessCommit(ctx context.Context, in *witnesscommit.Inputs) (*CommitBundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, types.ErrInvalidArgument.With("nil inputs")
	}
	if got := s.ccs.GetNbPublicVariables() - 1; got != witnesscommit.NbPublicInputs {
		return nil, types.ErrSetupArtifactCorrupt.Withf("session circuit has %d public inputs, not a witness-commit circuit", got)
	}
	if err := in.Check(); err != nil {
		return nil, err
	}
	proof, public, err := s.ProveAssignment(ctx, in.Assignment())
	if err != nil {
		return nil, err
	}
	return &CommitBundle{Proof: proof, PublicWitness: public, Witness: in.Witness}, nil
}

// VerifyWitnessCommit checks the proof with gnark and that its public
// inputs are the digest halves of the declared witness.
func (s *Session) VerifyWitnessCommit(b *CommitBundle) error {
	if b == nil {
		return types.ErrInvalidArgument.With("nil bundle")
	}
	if err := groth16.Verify(b.Proof, s.vk, b.PublicWitness); err != nil {
		return types.ErrProofVerification.WithErr(err)
	}
	vec, err := export.PublicVector(b.PublicWitness)
	if err != nil {
		return err
	}
	return witnesscommit.CheckVector(vec, b.Witness)
}

// ExportWitnessCommit converts the bundle to the on-chain documents.
func (s *Session) ExportWitnessCommit(b *CommitBundle) (*export.Bundle, error) {
	return export.NewBundle(s.vk, b.Proof, b.PublicWitness)
}
