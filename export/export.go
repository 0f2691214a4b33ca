// Package export converts gnark Groth16 artifacts over BLS12-381 into the
// JSON shapes consumed by the on-chain verifier, and back.
//
// Points are compressed hex, scalars decimal strings. The verifying key
// carries the commitment keys and the committed public indices, so a
// verifier can recompute the commitment wires without gnark.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	bls "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/pedersen"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bls12381 "github.com/consensys/gnark/backend/groth16/bls12-381"
	"github.com/consensys/gnark/backend/witness"
	"github.com/google/renameio/v2"
	"github.com/logical-mechanism/peace-protocol/commitment"
	"github.com/logical-mechanism/peace-protocol/config"
	"github.com/logical-mechanism/peace-protocol/log"
	"github.com/logical-mechanism/peace-protocol/types"
)

// CommitmentKey is one Pedersen verifying key.
type CommitmentKey struct {
	G         types.HexBytes `json:"g"`
	GSigmaNeg types.HexBytes `json:"gSigmaNeg"`
}

// VerifyingKey is the exported Groth16 verifying key.
type VerifyingKey struct {
	NPublic                      int              `json:"nPublic"`
	Alpha                        types.HexBytes   `json:"vkAlpha"`
	Beta                         types.HexBytes   `json:"vkBeta"`
	Gamma                        types.HexBytes   `json:"vkGamma"`
	Delta                        types.HexBytes   `json:"vkDelta"`
	IC                           []types.HexBytes `json:"vkIC"`
	CommitmentKeys               []CommitmentKey  `json:"commitmentKeys,omitempty"`
	PublicAndCommitmentCommitted [][]int          `json:"publicAndCommitmentCommitted,omitempty"`
}

// Proof is the exported Groth16 proof.
type Proof struct {
	PiA           types.HexBytes   `json:"piA"`
	PiB           types.HexBytes   `json:"piB"`
	PiC           types.HexBytes   `json:"piC"`
	Commitments   []types.HexBytes `json:"commitments,omitempty"`
	CommitmentPok types.HexBytes   `json:"commitmentPok,omitempty"`
}

// PublicInputs are the public witness values followed, separately, by
// the commitment wires derived from the proof.
type PublicInputs struct {
	Inputs          []*types.BigInt `json:"inputs"`
	CommitmentWires []*types.BigInt `json:"commitmentWires,omitempty"`
}

// Bundle is everything a verifier needs.
type Bundle struct {
	VerifyingKey *VerifyingKey
	Proof        *Proof
	Public       *PublicInputs
}

func concreteKey(vk groth16.VerifyingKey) (*groth16_bls12381.VerifyingKey, error) {
	v, ok := vk.(*groth16_bls12381.VerifyingKey)
	if !ok {
		return nil, types.ErrInvalidArgument.Withf("unexpected verifying key type %T", vk)
	}
	return v, nil
}

func concreteProof(proof groth16.Proof) (*groth16_bls12381.Proof, error) {
	p, ok := proof.(*groth16_bls12381.Proof)
	if !ok {
		return nil, types.ErrInvalidArgument.Withf("unexpected proof type %T", proof)
	}
	return p, nil
}

// NbPublic returns the number of public inputs the key expects, excluding
// the constant wire and the commitment wires.
func NbPublic(vk groth16.VerifyingKey) (int, error) {
	v, err := concreteKey(vk)
	if err != nil {
		return 0, err
	}
	n := len(v.G1.K) - 1 - len(v.PublicAndCommitmentCommitted)
	if n < 0 {
		return 0, types.ErrSetupArtifactCorrupt.With("verifying key has fewer IC points than commitments")
	}
	return n, nil
}

// NewVerifyingKey exports vk for nPublic public inputs. The key must have
// exactly one IC point per public input and commitment, plus the constant.
func NewVerifyingKey(vk groth16.VerifyingKey, nPublic int) (*VerifyingKey, error) {
	v, err := concreteKey(vk)
	if err != nil {
		return nil, err
	}
	want := nPublic + 1 + len(v.PublicAndCommitmentCommitted)
	if nPublic < 0 || len(v.G1.K) != want {
		return nil, types.ErrInvalidArgument.Withf("verifying key has %d IC points, %d public inputs need %d", len(v.G1.K), nPublic, want)
	}
	out := &VerifyingKey{
		NPublic:                      nPublic,
		Alpha:                        g1Hex(v.G1.Alpha),
		Beta:                         g2Hex(v.G2.Beta),
		Gamma:                        g2Hex(v.G2.Gamma),
		Delta:                        g2Hex(v.G2.Delta),
		IC:                           make([]types.HexBytes, len(v.G1.K)),
		PublicAndCommitmentCommitted: v.PublicAndCommitmentCommitted,
	}
	for i := range v.G1.K {
		out.IC[i] = g1Hex(v.G1.K[i])
	}
	for _, ck := range v.CommitmentKeys {
		out.CommitmentKeys = append(out.CommitmentKeys, CommitmentKey{G: g2Hex(ck.G), GSigmaNeg: g2Hex(ck.GSigmaNeg)})
	}
	return out, nil
}

// VerifyingKeyOnly exports vk deriving the public input count from the key.
func VerifyingKeyOnly(vk groth16.VerifyingKey) (*VerifyingKey, error) {
	n, err := NbPublic(vk)
	if err != nil {
		return nil, err
	}
	return NewVerifyingKey(vk, n)
}

// NewProof exports a proof.
func NewProof(proof groth16.Proof) (*Proof, error) {
	p, err := concreteProof(proof)
	if err != nil {
		return nil, err
	}
	out := &Proof{
		PiA: g1Hex(p.Ar),
		PiB: g2Hex(p.Bs),
		PiC: g1Hex(p.Krs),
	}
	if len(p.Commitments) > 0 {
		for _, c := range p.Commitments {
			out.Commitments = append(out.Commitments, g1Hex(c))
		}
		out.CommitmentPok = g1Hex(p.CommitmentPok)
	}
	return out, nil
}

// PublicVector returns the public values of a BLS12-381 witness. The
// vector never includes the constant wire.
func PublicVector(w witness.Witness) (fr.Vector, error) {
	v, ok := w.Vector().(fr.Vector)
	if !ok {
		return nil, types.ErrInvalidArgument.Withf("unexpected witness vector %T", w.Vector())
	}
	return v, nil
}

// NewPublicInputs exports the public vector and the commitment wires the
// proof induces on it.
func NewPublicInputs(public fr.Vector, vk groth16.VerifyingKey, proof groth16.Proof) (*PublicInputs, error) {
	v, err := concreteKey(vk)
	if err != nil {
		return nil, err
	}
	p, err := concreteProof(proof)
	if err != nil {
		return nil, err
	}
	wires, err := commitment.Wires(v.PublicAndCommitmentCommitted, p.Commitments, public)
	if err != nil {
		return nil, err
	}
	out := &PublicInputs{Inputs: make([]*types.BigInt, len(public))}
	for i := range public {
		out.Inputs[i] = elementToBigInt(&public[i])
	}
	for i := range wires {
		out.CommitmentWires = append(out.CommitmentWires, elementToBigInt(&wires[i]))
	}
	return out, nil
}

// NewBundle exports the three documents, checking that the public vector
// has the length the key expects.
func NewBundle(vk groth16.VerifyingKey, proof groth16.Proof, public witness.Witness) (*Bundle, error) {
	vec, err := PublicVector(public)
	if err != nil {
		return nil, err
	}
	n, err := NbPublic(vk)
	if err != nil {
		return nil, err
	}
	if len(vec) != n {
		return nil, types.ErrInvalidArgument.Withf("public witness has %d values, verifying key expects %d", len(vec), n)
	}
	vkj, err := NewVerifyingKey(vk, n)
	if err != nil {
		return nil, err
	}
	pj, err := NewProof(proof)
	if err != nil {
		return nil, err
	}
	pub, err := NewPublicInputs(vec, vk, proof)
	if err != nil {
		return nil, err
	}
	return &Bundle{VerifyingKey: vkj, Proof: pj, Public: pub}, nil
}

// WriteJSON writes v as indented JSON, atomically.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := renameio.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadJSON decodes the JSON file at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return types.ErrNotFound.With(path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return types.ErrMalformedEncoding.Withf("%s: %v", path, err)
	}
	return nil
}

// WriteBundle writes vk.json, proof.json and public.json into dir.
func WriteBundle(dir string, b *Bundle) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for name, v := range map[string]any{
		config.BundleVerifyingKeyFile: b.VerifyingKey,
		config.BundleProofFile:        b.Proof,
		config.BundlePublicFile:       b.Public,
	} {
		if err := WriteJSON(filepath.Join(dir, name), v); err != nil {
			return err
		}
	}
	log.Debugw("proof bundle written", "dir", dir, "nPublic", b.VerifyingKey.NPublic)
	return nil
}

// ReadBundle reads a bundle written by WriteBundle.
func ReadBundle(dir string) (*Bundle, error) {
	b := &Bundle{VerifyingKey: &VerifyingKey{}, Proof: &Proof{}, Public: &PublicInputs{}}
	if err := ReadJSON(filepath.Join(dir, config.BundleVerifyingKeyFile), b.VerifyingKey); err != nil {
		return nil, err
	}
	if err := ReadJSON(filepath.Join(dir, config.BundleProofFile), b.Proof); err != nil {
		return nil, err
	}
	if err := ReadJSON(filepath.Join(dir, config.BundlePublicFile), b.Public); err != nil {
		return nil, err
	}
	return b, nil
}

func g1Hex(p bls.G1Affine) types.HexBytes {
	b := p.Bytes()
	return b[:]
}

func g2Hex(p bls.G2Affine) types.HexBytes {
	b := p.Bytes()
	return b[:]
}

func elementToBigInt(e *fr.Element) *types.BigInt {
	return (*types.BigInt)(e.BigInt(new(big.Int)))
}

// pedersenKeys decodes the commitment keys.
func (v *VerifyingKey) pedersenKeys() ([]pedersen.VerifyingKey, error) {
	keys := make([]pedersen.VerifyingKey, len(v.CommitmentKeys))
	for i, ck := range v.CommitmentKeys {
		var err error
		if keys[i].G, err = DecodeG2(ck.G); err != nil {
			return nil, fmt.Errorf("commitment key %d: %w", i, err)
		}
		if keys[i].GSigmaNeg, err = DecodeG2(ck.GSigmaNeg); err != nil {
			return nil, fmt.Errorf("commitment key %d: %w", i, err)
		}
	}
	return keys, nil
}
