package circuits

import (
	"fmt"
	"io"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/google/renameio/v2"
	"github.com/logical-mechanism/peace-protocol/log"
	"github.com/logical-mechanism/peace-protocol/types"
)

// StoreArtifact writes the object to path atomically: readers see either the
// previous file or the complete new one.
func StoreArtifact(path string, obj io.WriterTo) error {
	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if err := pf.Cleanup(); err != nil {
			log.Warnw("cleanup pending file", "path", path, "error", err)
		}
	}()
	n, err := obj.WriteTo(pf)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("commit %s: %w", path, err)
	}
	log.Debugw("artifact written", "path", path, "bytes", n)
	return nil
}

// LoadArtifact reads path into obj. Decoding errors are reported as
// corrupt setup artifacts.
func LoadArtifact(path string, obj io.ReaderFrom) error {
	fd, err := os.Open(path)
	if err != nil {
		return types.ErrSetupArtifactCorrupt.WithErr(err)
	}
	defer fd.Close()
	if _, err := obj.ReadFrom(fd); err != nil {
		return types.ErrSetupArtifactCorrupt.Withf("decode %s: %v", path, err)
	}
	return nil
}

// StoreConstraintSystem stores the constraint system in a file.
func StoreConstraintSystem(cs constraint.ConstraintSystem, path string) error {
	return StoreArtifact(path, cs)
}

// StoreProvingKey stores the proving key in a file.
func StoreProvingKey(pk groth16.ProvingKey, path string) error {
	return StoreArtifact(path, pk)
}

// StoreVerifyingKey stores the verifying key in a file.
func StoreVerifyingKey(vk groth16.VerifyingKey, path string) error {
	return StoreArtifact(path, vk)
}

// LoadConstraintSystem reads a BLS12-381 constraint system.
func LoadConstraintSystem(path string) (constraint.ConstraintSystem, error) {
	cs := groth16.NewCS(ecc.BLS12_381)
	if err := LoadArtifact(path, cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// LoadProvingKey reads a BLS12-381 proving key.
func LoadProvingKey(path string) (groth16.ProvingKey, error) {
	pk := groth16.NewProvingKey(ecc.BLS12_381)
	if err := LoadArtifact(path, pk); err != nil {
		return nil, err
	}
	return pk, nil
}

// LoadVerifyingKey reads a BLS12-381 verifying key.
func LoadVerifyingKey(path string) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(ecc.BLS12_381)
	if err := LoadArtifact(path, vk); err != nil {
		return nil, err
	}
	return vk, nil
}
