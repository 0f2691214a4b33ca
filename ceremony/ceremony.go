// Package ceremony runs the two-phase multi-party Groth16 setup for a
// BLS12-381 circuit as a sequence of files in one directory.
//
// Phase 1 (powers of tau) does not depend on the circuit beyond its domain
// size; phase 2 is circuit specific and produces the proving and verifying
// keys. Each participant reads the latest contribution of the running
// phase and writes the next one. Anyone can verify the whole chain, and
// finalizing a phase seals it with a public random beacon.
//
// Directory layout:
//
//	ccs.bin             constraint system written by Init
//	phase1_NNNN.bin     phase 1 contributions, 0000 is the seed
//	commons.bin         sealed phase 1 output
//	phase2_NNNN.bin     phase 2 contributions, 0000 is the seed
//	pk.bin, vk.bin      sealed keys
//	vk.json             exported verifying key
package ceremony

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/groth16/bls12-381/mpcsetup"
	"github.com/consensys/gnark/constraint"
	cs "github.com/consensys/gnark/constraint/bls12-381"
	"github.com/logical-mechanism/peace-protocol/circuits"
	"github.com/logical-mechanism/peace-protocol/circuits/witnessderivation"
	"github.com/logical-mechanism/peace-protocol/config"
	"github.com/logical-mechanism/peace-protocol/export"
	"github.com/logical-mechanism/peace-protocol/log"
	"github.com/logical-mechanism/peace-protocol/types"
)

// Ceremony is a setup ceremony stored in a directory.
type Ceremony struct {
	dir     string
	compile func() (constraint.ConstraintSystem, error)
}

// Option configures a ceremony.
type Option func(*Ceremony)

// WithCircuit sets the circuit compiled by Init. The default is the
// witness-derivation circuit.
func WithCircuit(compile func() (constraint.ConstraintSystem, error)) Option {
	return func(c *Ceremony) {
		c.compile = compile
	}
}

// New returns the ceremony stored in dir.
func New(dir string, opts ...Option) *Ceremony {
	c := &Ceremony{dir: dir, compile: witnessderivation.Compile}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dir returns the ceremony directory.
func (c *Ceremony) Dir() string {
	return c.dir
}

// Info describes an initialized ceremony.
type Info struct {
	Constraints int
	DomainSize  uint64
}

func domainSize(ccs constraint.ConstraintSystem) uint64 {
	return ecc.NextPowerOfTwo(uint64(ccs.GetNbConstraints()))
}

func checkPhase(phase int) error {
	if phase != 1 && phase != 2 {
		return types.ErrInvalidArgument.Withf("phase must be 1 or 2, got %d", phase)
	}
	return nil
}

func (c *Ceremony) checkDir() error {
	info, err := os.Stat(c.dir)
	if err != nil {
		return types.ErrCeremonyState.Withf("ceremony directory: %v", err)
	}
	if !info.IsDir() {
		return types.ErrCeremonyState.Withf("%s is not a directory", c.dir)
	}
	return nil
}

// Init compiles the circuit, stores it and writes the phase 1 seed. An
// existing ceremony is only replaced when force is set, and then every
// file of the previous run is removed.
func (c *Ceremony) Init(force bool) (*Info, error) {
	if c.exists(config.ConstraintSystemFile) {
		if !force {
			return nil, types.ErrCeremonyState.Withf("ceremony already initialized in %s", c.dir)
		}
		if err := c.reset(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ceremony directory: %w", err)
	}
	ccs, err := c.compile()
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	if _, ok := ccs.(*cs.R1CS); !ok {
		return nil, types.ErrInvalidArgument.Withf("ceremonies need a BLS12-381 R1CS, got %T", ccs)
	}
	if err := circuits.StoreConstraintSystem(ccs, c.path(config.ConstraintSystemFile)); err != nil {
		return nil, err
	}
	n := domainSize(ccs)
	if err := writeExclusive(c.contributionPath(1, 0), mpcsetup.NewPhase1(n)); err != nil {
		return nil, err
	}
	log.Infow("ceremony initialized", "dir", c.dir, "constraints", ccs.GetNbConstraints(), "domain", n)
	return &Info{Constraints: ccs.GetNbConstraints(), DomainSize: n}, nil
}

func (c *Ceremony) reset() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return types.ErrCeremonyState.WithErr(err)
	}
	sealed := map[string]bool{
		config.ConstraintSystemFile: true,
		config.CommonsFile:          true,
		config.ProvingKeyFile:       true,
		config.VerifyingKeyFile:     true,
		config.VerifyingKeyJSONFile: true,
	}
	for _, e := range entries {
		name := e.Name()
		if matched, _ := filepath.Match("phase[12]_*.bin", name); matched || sealed[name] {
			if err := os.Remove(c.path(name)); err != nil {
				return fmt.Errorf("remove %s: %w", name, err)
			}
		}
	}
	log.Warnw("previous ceremony removed", "dir", c.dir)
	return nil
}

// checkOpen fails when the phase does not accept contributions.
func (c *Ceremony) checkOpen(phase int) error {
	if c.exists(config.VerifyingKeyFile) {
		return types.ErrCeremonyState.With("ceremony is already finalized")
	}
	switch phase {
	case 1:
		if c.exists(config.CommonsFile) {
			return types.ErrCeremonyState.With("phase 1 is already finalized")
		}
	case 2:
		if !c.exists(config.CommonsFile) {
			return types.ErrCeremonyState.With("phase 1 is not finalized yet")
		}
	}
	return nil
}

func (c *Ceremony) loadR1CS() (*cs.R1CS, error) {
	ccs, err := circuits.LoadConstraintSystem(c.path(config.ConstraintSystemFile))
	if err != nil {
		return nil, err
	}
	r1cs, ok := ccs.(*cs.R1CS)
	if !ok {
		return nil, types.ErrSetupArtifactCorrupt.Withf("constraint system is %T, not a BLS12-381 R1CS", ccs)
	}
	return r1cs, nil
}

// Contribute adds a contribution on top of the latest one of the phase and
// returns its index and the sha256 of the written file, which the
// participant publishes.
func (c *Ceremony) Contribute(phase int) (int, string, error) {
	if err := checkPhase(phase); err != nil {
		return 0, "", err
	}
	if err := c.checkDir(); err != nil {
		return 0, "", err
	}
	if err := c.checkOpen(phase); err != nil {
		return 0, "", err
	}
	paths, err := c.contributions(phase)
	if err != nil {
		return 0, "", err
	}
	if len(paths) == 0 {
		return 0, "", types.ErrCeremonyState.Withf("phase %d has no seed", phase)
	}
	latest := paths[len(paths)-1]
	next := len(paths)
	var contribution io.WriterTo
	switch phase {
	case 1:
		p := new(mpcsetup.Phase1)
		if err := load(latest, p); err != nil {
			return 0, "", err
		}
		p.Contribute()
		contribution = p
	case 2:
		p := new(mpcsetup.Phase2)
		if err := load(latest, p); err != nil {
			return 0, "", err
		}
		p.Contribute()
		contribution = p
	}
	out := c.contributionPath(phase, next)
	if err := writeExclusive(out, contribution); err != nil {
		return 0, "", err
	}
	hash, err := fileHash(out)
	if err != nil {
		return next, "", fmt.Errorf("hash contribution: %w", err)
	}
	log.Infow("contribution written", "phase", phase, "index", next, "sha256", hash)
	return next, hash, nil
}

// Verify checks every link of the phase chain and returns the number of
// verified contributions.
func (c *Ceremony) Verify(phase int) (int, error) {
	if err := checkPhase(phase); err != nil {
		return 0, err
	}
	if err := c.checkDir(); err != nil {
		return 0, err
	}
	paths, err := c.contributions(phase)
	if err != nil {
		return 0, err
	}
	if len(paths) < 2 {
		return 0, types.ErrCeremonyChainBroken.Withf("phase %d needs at least one contribution beyond the seed, found %d files", phase, len(paths))
	}
	switch phase {
	case 1:
		err = verifyChain(paths, func() *mpcsetup.Phase1 { return new(mpcsetup.Phase1) },
			func(prev, next *mpcsetup.Phase1) error { return prev.Verify(next) })
	case 2:
		err = verifyChain(paths, func() *mpcsetup.Phase2 { return new(mpcsetup.Phase2) },
			func(prev, next *mpcsetup.Phase2) error { return prev.Verify(next) })
	}
	if err != nil {
		return 0, err
	}
	log.Infow("ceremony chain verified", "phase", phase, "contributions", len(paths)-1)
	return len(paths) - 1, nil
}

// verifyChain loads the contributions one by one and checks each against
// its predecessor.
func verifyChain[T io.ReaderFrom](paths []string, alloc func() T, verify func(prev, next T) error) error {
	prev := alloc()
	if err := load(paths[0], prev); err != nil {
		return err
	}
	for i := 1; i < len(paths); i++ {
		next := alloc()
		if err := load(paths[i], next); err != nil {
			return types.ErrCeremonyChainBroken.Withf("contribution %d: %v", i, err)
		}
		if err := verify(prev, next); err != nil {
			return types.ErrCeremonyChainBroken.Withf("contribution %d: %v", i, err)
		}
		prev = next
	}
	return nil
}

// Finalize seals a phase with the beacon. Sealing phase 1 writes the
// commons and the phase 2 seed; sealing phase 2 writes the keys and the
// exported verifying key.
func (c *Ceremony) Finalize(phase int, beacon []byte) error {
	if err := checkPhase(phase); err != nil {
		return err
	}
	if len(beacon) == 0 {
		return types.ErrInvalidArgument.With("beacon must not be empty")
	}
	if err := c.checkDir(); err != nil {
		return err
	}
	if err := c.checkOpen(phase); err != nil {
		return err
	}
	r1cs, err := c.loadR1CS()
	if err != nil {
		return err
	}
	paths, err := c.contributions(phase)
	if err != nil {
		return err
	}
	if len(paths) < 2 {
		return types.ErrCeremonyChainBroken.Withf("phase %d needs at least one contribution beyond the seed, found %d files", phase, len(paths))
	}
	if phase == 1 {
		return c.finalizePhase1(r1cs, paths[1:], beacon)
	}
	return c.finalizePhase2(r1cs, paths[1:], beacon)
}

func (c *Ceremony) finalizePhase1(r1cs *cs.R1CS, paths []string, beacon []byte) error {
	contributions := make([]*mpcsetup.Phase1, len(paths))
	for i, p := range paths {
		contributions[i] = new(mpcsetup.Phase1)
		if err := load(p, contributions[i]); err != nil {
			return types.ErrCeremonyChainBroken.Withf("contribution %d: %v", i+1, err)
		}
	}
	commons, err := mpcsetup.VerifyPhase1(domainSize(r1cs), beacon, contributions...)
	if err != nil {
		return types.ErrCeremonyChainBroken.Withf("phase 1: %v", err)
	}
	var p2 mpcsetup.Phase2
	p2.Initialize(r1cs, &commons)
	// a seed left by an interrupted finalize is stale: phase 2 cannot have
	// started while the commons are missing
	if err := os.Remove(c.contributionPath(2, 0)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale phase 2 seed: %w", err)
	}
	if err := writeExclusive(c.contributionPath(2, 0), &p2); err != nil {
		return err
	}
	// commons is written last: its presence marks phase 1 as sealed
	if err := circuits.StoreArtifact(c.path(config.CommonsFile), &commons); err != nil {
		return err
	}
	log.Infow("phase 1 finalized", "dir", c.dir, "contributions", len(paths))
	return nil
}

func (c *Ceremony) finalizePhase2(r1cs *cs.R1CS, paths []string, beacon []byte) error {
	commons := new(mpcsetup.SrsCommons)
	if err := load(c.path(config.CommonsFile), commons); err != nil {
		return err
	}
	contributions := make([]*mpcsetup.Phase2, len(paths))
	for i, p := range paths {
		contributions[i] = new(mpcsetup.Phase2)
		if err := load(p, contributions[i]); err != nil {
			return types.ErrCeremonyChainBroken.Withf("contribution %d: %v", i+1, err)
		}
	}
	pk, vk, err := mpcsetup.VerifyPhase2(r1cs, commons, beacon, contributions...)
	if err != nil {
		return types.ErrCeremonyChainBroken.Withf("phase 2: %v", err)
	}
	return c.seal(pk, vk)
}

func (c *Ceremony) seal(pk groth16.ProvingKey, vk groth16.VerifyingKey) error {
	vkj, err := export.VerifyingKeyOnly(vk)
	if err != nil {
		return err
	}
	if err := export.WriteJSON(c.path(config.VerifyingKeyJSONFile), vkj); err != nil {
		return err
	}
	if err := circuits.StoreProvingKey(pk, c.path(config.ProvingKeyFile)); err != nil {
		return err
	}
	// vk.bin is written last: its presence marks the ceremony as sealed
	if err := circuits.StoreVerifyingKey(vk, c.path(config.VerifyingKeyFile)); err != nil {
		return err
	}
	log.Infow("phase 2 finalized", "dir", c.dir, "nPublic", vkj.NPublic)
	return nil
}
