package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/logical-mechanism/peace-protocol/circuits/testcircuit"
	"github.com/logical-mechanism/peace-protocol/circuits/witnessderivation"
	"github.com/logical-mechanism/peace-protocol/config"
	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/crypto/kappa"
	"github.com/logical-mechanism/peace-protocol/prover"
	"github.com/logical-mechanism/peace-protocol/register"
	"github.com/logical-mechanism/peace-protocol/types"
)

func run(c *qt.C, args ...string) (string, error) {
	cmd := rootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestHash(t *testing.T) {
	c := qt.New(t)
	out, err := run(c, "hash", "--a", "12345")
	c.Assert(err, qt.IsNil)

	hk, err := kappa.HK(big.NewInt(12345))
	c.Assert(err, qt.IsNil)
	c.Assert(strings.TrimSpace(out), qt.Equals, hex.EncodeToString(kappa.Bytes(hk)))

	_, err = run(c, "hash", "--a", "0")
	c.Assert(exitCode(err), qt.Equals, exitUsage)
	_, err = run(c, "hash")
	c.Assert(exitCode(err), qt.Equals, exitUsage)
}

func TestDecryptHop(t *testing.T) {
	c := qt.New(t)
	a, r := bls12381.MustRandomScalar(), bls12381.MustRandomScalar()
	bob, err := register.RandomIdentity()
	c.Assert(err, qt.IsNil)
	r1 := bls12381.G1BaseMul(r)
	r2 := bls12381.G1BaseMul(a).Add(bob.Public.Mul(r))
	shared := bls12381.H0().Mul(bob.Secret)

	out, err := run(c, "decrypt-hop", "--r1", r1.Hex(), "--g1b", r2.Hex(), "--shared", shared.Hex())
	c.Assert(err, qt.IsNil)
	hk, err := kappa.HK(a)
	c.Assert(err, qt.IsNil)
	c.Assert(strings.TrimSpace(out), qt.Equals, hex.EncodeToString(kappa.Bytes(hk)))

	_, err = run(c, "decrypt-hop", "--r1", "zz", "--g1b", r2.Hex(), "--shared", shared.Hex())
	c.Assert(exitCode(err), qt.Equals, exitUsage)
}

func TestAssetFlow(t *testing.T) {
	c := qt.New(t)
	dbDir := filepath.Join(t.TempDir(), "db")
	aliceKey, bobKey := "a11ce0", "b0b0"

	bobPub, err := run(c, "register", "--key", bobKey)
	c.Assert(err, qt.IsNil)
	bobPub = strings.TrimSpace(bobPub)

	_, err = run(c, "asset", "create", "--db", dbDir, "--key", aliceKey, "--id", "doc-1", "--message", "hello bob")
	c.Assert(err, qt.IsNil)

	out, err := run(c, "asset", "open", "--db", dbDir, "--key", aliceKey, "--id", "doc-1")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "hello bob")

	secrets := filepath.Join(t.TempDir(), "hop.json")
	_, err = run(c, "asset", "hop", "--db", dbDir, "--key", aliceKey, "--id", "doc-1", "--to", bobPub, "--secrets-out", secrets)
	c.Assert(err, qt.IsNil)
	info, err := os.Stat(secrets)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Mode().Perm(), qt.Equals, os.FileMode(0o600))
	data, err := os.ReadFile(secrets)
	c.Assert(err, qt.IsNil)
	var doc hopSecrets
	c.Assert(json.Unmarshal(data, &doc), qt.IsNil)
	c.Assert(doc.AssetID, qt.Equals, "doc-1")
	c.Assert(doc.Level, qt.Equals, uint32(1))
	c.Assert(doc.V, qt.Equals, bobPub)
	hk, err := kappa.HK(doc.A.MathBigInt())
	c.Assert(err, qt.IsNil)
	c.Assert(doc.HK.MathBigInt().Cmp(hk), qt.Equals, 0)
	c.Assert(doc.W0, qt.Equals, bls12381.G1BaseMul(hk).Hex())

	payload := filepath.Join(t.TempDir(), "payload.txt")
	_, err = run(c, "asset", "open", "--db", dbDir, "--key", bobKey, "--id", "doc-1", "--out", payload)
	c.Assert(err, qt.IsNil)
	got, err := os.ReadFile(payload)
	c.Assert(err, qt.IsNil)
	c.Assert(string(got), qt.Equals, "hello bob")

	_, err = run(c, "asset", "open", "--db", dbDir, "--key", aliceKey, "--id", "doc-1")
	c.Assert(exitCode(err), qt.Equals, exitCrypto)

	// alice no longer holds the asset
	again := filepath.Join(t.TempDir(), "again.json")
	_, err = run(c, "asset", "hop", "--db", dbDir, "--key", aliceKey, "--id", "doc-1", "--to", bobPub, "--secrets-out", again)
	c.Assert(exitCode(err), qt.Equals, exitCrypto)
	_, err = os.Stat(again)
	c.Assert(os.IsNotExist(err), qt.IsTrue)

	out, err = run(c, "asset", "list", "--db", dbDir)
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "doc-1\tlevels=2\tholder="+bobPub)

	_, err = run(c, "asset", "open", "--db", dbDir, "--key", bobKey, "--id", "missing")
	c.Assert(exitCode(err), qt.Equals, exitUsage)
}

func TestAssetHopStoresOnlyProvenHops(t *testing.T) {
	c := qt.New(t)
	dbDir := filepath.Join(t.TempDir(), "db")
	aliceKey := "a11ce0"
	bobPub, err := run(c, "register", "--key", "b0b0")
	c.Assert(err, qt.IsNil)
	bobPub = strings.TrimSpace(bobPub)
	_, err = run(c, "asset", "create", "--db", dbDir, "--key", aliceKey, "--id", "doc-2", "--message", "x")
	c.Assert(err, qt.IsNil)

	// without a proof or the secrets the hop could never be proven
	_, err = run(c, "asset", "hop", "--db", dbDir, "--key", aliceKey, "--id", "doc-2", "--to", bobPub)
	c.Assert(exitCode(err), qt.Equals, exitUsage)

	// a setup that loads but cannot prove a witness derivation
	setupDir := t.TempDir()
	s, err := prover.DevSessionFor(testcircuit.Compile, witnessderivation.Policy{})
	c.Assert(err, qt.IsNil)
	c.Assert(s.Save(setupDir), qt.IsNil)
	proofDir := t.TempDir()
	_, err = run(c, "asset", "hop", "--db", dbDir, "--key", aliceKey, "--id", "doc-2", "--to", bobPub,
		"--prove-out", proofDir, "--setup-dir", setupDir)
	c.Assert(exitCode(err), qt.Equals, exitSetup)
	_, err = os.Stat(filepath.Join(proofDir, config.BundleProofFile))
	c.Assert(os.IsNotExist(err), qt.IsTrue)

	out, err := run(c, "asset", "list", "--db", dbDir)
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "doc-2\tlevels=1\t")
}

func TestProveArguments(t *testing.T) {
	c := qt.New(t)
	_, err := run(c, "prove", "--circuit", "sha3", "--hk", "5")
	c.Assert(exitCode(err), qt.Equals, exitUsage)
	_, err = run(c, "prove", "--circuit", "witness-commit", "--setup-dir", t.TempDir())
	c.Assert(exitCode(err), qt.Equals, exitUsage)

	// the witness-commit prover refuses a setup of another circuit
	setupDir := t.TempDir()
	s, err := prover.DevSessionFor(testcircuit.Compile, witnessderivation.Policy{})
	c.Assert(err, qt.IsNil)
	c.Assert(s.Save(setupDir), qt.IsNil)
	_, err = run(c, "prove", "--circuit", "witness-commit", "--hk", "12345", "--setup-dir", setupDir, "--out", t.TempDir())
	c.Assert(exitCode(err), qt.Equals, exitSetup)
}

func TestProveWitnessCommit(t *testing.T) {
	if os.Getenv("RUN_CIRCUIT_TESTS") == "" || os.Getenv("RUN_CIRCUIT_TESTS") == "false" {
		t.Skip("skipping circuit tests...")
	}
	c := qt.New(t)
	setupDir, proofDir := t.TempDir(), t.TempDir()
	_, err := run(c, "setup", "--dev", "--circuit", "witness-commit", "--setup-dir", setupDir)
	c.Assert(err, qt.IsNil)
	_, err = run(c, "prove", "--circuit", "witness-commit", "--hk", "12345", "--setup-dir", setupDir, "--out", proofDir)
	c.Assert(err, qt.IsNil)

	w := bls12381.G1BaseMul(big.NewInt(12345))
	out, err := run(c, "verify", "--circuit", "witness-commit", "--dir", proofDir, "--w0", w.Hex())
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "proof is valid")
	_, err = run(c, "verify", "--circuit", "witness-commit", "--dir", proofDir, "--w0", w.Neg().Hex())
	c.Assert(exitCode(err), qt.Equals, exitCrypto)
}

func TestCeremonyArguments(t *testing.T) {
	c := qt.New(t)
	_, err := run(c, "ceremony", "contribute", "--dir", t.TempDir(), "--phase", "3")
	c.Assert(exitCode(err), qt.Equals, exitUsage)
	_, err = run(c, "ceremony", "verify", "--dir", filepath.Join(t.TempDir(), "missing"), "--phase", "1")
	c.Assert(exitCode(err), qt.Equals, exitSetup)
	_, err = run(c, "setup", "--setup-dir", t.TempDir())
	c.Assert(exitCode(err), qt.Equals, exitUsage)
}

func TestExitCode(t *testing.T) {
	c := qt.New(t)
	c.Assert(exitCode(nil), qt.Equals, exitOK)
	c.Assert(exitCode(types.ErrMalformedEncoding), qt.Equals, exitUsage)
	c.Assert(exitCode(types.ErrInvalidRegister.With("x")), qt.Equals, exitUsage)
	c.Assert(exitCode(types.ErrProofVerification), qt.Equals, exitCrypto)
	c.Assert(exitCode(types.ErrCircuitUnsatisfiable), qt.Equals, exitCrypto)
	c.Assert(exitCode(types.ErrCeremonyChainBroken), qt.Equals, exitSetup)
	c.Assert(exitCode(types.ErrSetupArtifactCorrupt), qt.Equals, exitSetup)
	c.Assert(exitCode(os.ErrNotExist), qt.Equals, exitUsage)
}
