package main

import (
	"fmt"

	"github.com/logical-mechanism/peace-protocol/binder"
	"github.com/logical-mechanism/peace-protocol/circuits/witnesscommit"
	"github.com/logical-mechanism/peace-protocol/circuits/witnessderivation"
	"github.com/logical-mechanism/peace-protocol/config"
	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/export"
	"github.com/logical-mechanism/peace-protocol/log"
	"github.com/logical-mechanism/peace-protocol/prover"
	"github.com/logical-mechanism/peace-protocol/verifier"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Circuit names accepted by --circuit.
const (
	witnessDerivationCircuit = "witness-derivation"
	witnessCommitCircuit     = "witness-commit"
)

func circuitFlag(flags *pflag.FlagSet) (string, error) {
	name, err := flags.GetString(circuitKey)
	if err != nil {
		return "", err
	}
	switch name {
	case witnessDerivationCircuit, witnessCommitCircuit:
		return name, nil
	default:
		return "", usageError("unknown circuit %q, want %s or %s", name, witnessDerivationCircuit, witnessCommitCircuit)
	}
}

func addCircuitFlag(flags *pflag.FlagSet) {
	flags.String(circuitKey, witnessDerivationCircuit, "circuit: witness-derivation or witness-commit")
}

func policyFlag(flags *pflag.FlagSet) (witnessderivation.Policy, error) {
	allow, err := flags.GetBool(allowZeroBlindingKey)
	if err != nil {
		return witnessderivation.Policy{}, err
	}
	return witnessderivation.Policy{AllowZeroBlinding: allow}, nil
}

func pointsFlags(flags *pflag.FlagSet) (binder.Points, error) {
	v, err := g1Flag(flags, vKey)
	if err != nil {
		return binder.Points{}, err
	}
	w0, err := g1Flag(flags, w0Key)
	if err != nil {
		return binder.Points{}, err
	}
	w1, err := g1Flag(flags, w1Key)
	if err != nil {
		return binder.Points{}, err
	}
	return binder.Points{Recipient: v, Witness: w0, NewR2: w1}, nil
}

func addPointsFlags(flags *pflag.FlagSet) {
	flags.String(vKey, "", "recipient register, compressed G1 hex")
	flags.String(w0Key, "", "witness point W = [hk]g, compressed G1 hex")
	flags.String(w1Key, "", "new level r2, compressed G1 hex")
}

func proveCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "prove",
		Short: "Prove a witness derivation or witness commitment and write vk.json, proof.json and public.json",
		Long: `With --circuit witness-derivation (the default) --a, --r, --v, --w0 and
--w1 are required. With --circuit witness-commit only --hk is required and
--w0 defaults to [hk]g.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			flags := c.Flags()
			circuit, err := circuitFlag(flags)
			if err != nil {
				return err
			}
			policy, err := policyFlag(flags)
			if err != nil {
				return err
			}
			setupDir, err := requireString(flags, setupDirKey)
			if err != nil {
				return err
			}
			out, err := requireString(flags, outKey)
			if err != nil {
				return err
			}
			if circuit == witnessCommitCircuit {
				in, err := commitInputsFlags(flags)
				if err != nil {
					return err
				}
				session, err := prover.LoadSessionDir(c.Context(), setupDir, policy)
				if err != nil {
					return err
				}
				if err := proveCommitTo(c, session, in, out); err != nil {
					return err
				}
				fmt.Fprintln(c.OutOrStdout(), "proof written to", out)
				return nil
			}

			a, err := scalarFlag(flags, aKey)
			if err != nil {
				return err
			}
			r, err := scalarFlag(flags, rKey)
			if err != nil {
				return err
			}
			points, err := pointsFlags(flags)
			if err != nil {
				return err
			}
			session, err := prover.LoadSessionDir(c.Context(), setupDir, policy)
			if err != nil {
				return err
			}
			in := &witnessderivation.Inputs{
				A:         a,
				R:         r,
				Recipient: points.Recipient,
				Witness:   points.Witness,
				NewR2:     points.NewR2,
			}
			if err := proveTo(c, session, in, out); err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), "proof written to", out)
			return nil
		},
	}
	flags := c.Flags()
	addCircuitFlag(flags)
	flags.String(aKey, "", "new level secret a (decimal or 0x hex)")
	flags.String(rKey, "", "new level blinding r (decimal or 0x hex)")
	flags.String(hkKey, "", "hop digest hk for the witness-commit circuit (decimal or 0x hex)")
	addPointsFlags(flags)
	flags.String(setupDirKey, config.SetupDir(), "directory holding ccs.bin, pk.bin and vk.bin")
	flags.String(outKey, ".", "directory the proof bundle is written to")
	flags.Bool(allowZeroBlindingKey, config.AllowZeroBlinding(), "accept r = 0")
	return c
}

func commitInputsFlags(flags *pflag.FlagSet) (*witnesscommit.Inputs, error) {
	hk, err := scalarFlag(flags, hkKey)
	if err != nil {
		return nil, err
	}
	w := bls12381.G1BaseMul(hk)
	if flags.Changed(w0Key) {
		if w, err = g1Flag(flags, w0Key); err != nil {
			return nil, err
		}
	}
	return &witnesscommit.Inputs{HK: hk, Witness: w}, nil
}

// proveTo proves in with session, checks the result and writes the
// exported bundle to dir.
func proveTo(c *cobra.Command, session *prover.Session, in *witnessderivation.Inputs, dir string) error {
	b, err := session.Prove(c.Context(), in)
	if err != nil {
		return err
	}
	if err := session.Verify(b); err != nil {
		return err
	}
	exported, err := session.Export(b)
	if err != nil {
		return err
	}
	if err := export.WriteBundle(dir, exported); err != nil {
		return err
	}
	log.Infow("proof bundle written", "dir", dir)
	return nil
}

func proveCommitTo(c *cobra.Command, session *prover.Session, in *witnesscommit.Inputs, dir string) error {
	b, err := session.ProveWitnessCommit(c.Context(), in)
	if err != nil {
		return err
	}
	if err := session.VerifyWitnessCommit(b); err != nil {
		return err
	}
	exported, err := session.ExportWitnessCommit(b)
	if err != nil {
		return err
	}
	if err := export.WriteBundle(dir, exported); err != nil {
		return err
	}
	log.Infow("witness commitment bundle written", "dir", dir, "witness", in.Witness.Hex())
	return nil
}

func verifyCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "verify",
		Short: "Verify an exported proof bundle",
		Long: `Verify vk.json, proof.json and public.json with the native verifier.
For a witness derivation, when --v, --w0 and --w1 are given the public
inputs must also encode exactly those points; otherwise the decoded points
are printed. For a witness commitment, --w0 is checked against the digest
halves, which are printed when it is absent.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			flags := c.Flags()
			circuit, err := circuitFlag(flags)
			if err != nil {
				return err
			}
			dir, err := requireString(flags, dirKey)
			if err != nil {
				return err
			}
			b, err := export.ReadBundle(dir)
			if err != nil {
				return err
			}
			if err := verifier.VerifyBundle(b); err != nil {
				return err
			}
			out := c.OutOrStdout()
			switch {
			case circuit == witnessCommitCircuit && flags.Changed(w0Key):
				w, err := g1Flag(flags, w0Key)
				if err != nil {
					return err
				}
				if err := witnesscommit.CheckDigest(b.Public.BigInts(), w); err != nil {
					return err
				}
			case circuit == witnessCommitCircuit:
				inputs := b.Public.BigInts()
				if len(inputs) != witnesscommit.NbPublicInputs {
					return usageError("bundle has %d public inputs, not a witness commitment", len(inputs))
				}
				fmt.Fprintf(out, "hw0: %x\n", inputs[0])
				fmt.Fprintf(out, "hw1: %x\n", inputs[1])
			case flags.Changed(vKey) || flags.Changed(w0Key) || flags.Changed(w1Key):
				expected, err := pointsFlags(flags)
				if err != nil {
					return err
				}
				if err := binder.Check(b.Public.BigInts(), expected); err != nil {
					return err
				}
			default:
				points, err := binder.Decode(b.Public.BigInts())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "v: ", points.Recipient.Hex())
				fmt.Fprintln(out, "w0:", points.Witness.Hex())
				fmt.Fprintln(out, "w1:", points.NewR2.Hex())
			}
			fmt.Fprintln(out, "proof is valid")
			return nil
		},
	}
	flags := c.Flags()
	addCircuitFlag(flags)
	flags.String(dirKey, ".", "directory holding the proof bundle")
	addPointsFlags(flags)
	return c
}

func setupCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "setup",
		Short: "Run a single-party development setup",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			flags := c.Flags()
			circuit, err := circuitFlag(flags)
			if err != nil {
				return err
			}
			dev, err := flags.GetBool(devKey)
			if err != nil {
				return err
			}
			if !dev {
				return usageError("only --dev setups are run by this command, use the ceremony commands otherwise")
			}
			dir, err := requireString(flags, setupDirKey)
			if err != nil {
				return err
			}
			compile := witnessderivation.Compile
			if circuit == witnessCommitCircuit {
				compile = witnesscommit.Compile
			}
			session, err := prover.DevSessionFor(compile, witnessderivation.Policy{})
			if err != nil {
				return err
			}
			if err := session.Save(dir); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "development %s setup written to %s\n", circuit, dir)
			return nil
		},
	}
	flags := c.Flags()
	addCircuitFlag(flags)
	flags.Bool(devKey, false, "single-party setup whose toxic waste is known to this process")
	flags.String(setupDirKey, config.SetupDir(), "directory the setup files are written to")
	return c
}
