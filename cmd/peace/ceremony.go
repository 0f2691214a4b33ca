package main

import (
	"fmt"

	"github.com/logical-mechanism/peace-protocol/ceremony"
	"github.com/logical-mechanism/peace-protocol/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func ceremonyCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "ceremony",
		Short: "Run the file-based two-phase setup ceremony",
	}
	c.PersistentFlags().String(dirKey, config.SetupDir(), "ceremony directory")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Compile the circuit and write the phase 1 seed",
		Args:  cobra.NoArgs,
		RunE:  ceremonyInit,
	}
	initCmd.Flags().Bool(forceKey, false, "discard an existing ceremony in the directory")

	finalizeCmd := phaseCommand("finalize", "Verify and seal a phase with a random beacon", ceremonyFinalize)
	finalizeCmd.Flags().String(beaconKey, "", "public random beacon, hex")

	c.AddCommand(
		initCmd,
		phaseCommand("contribute", "Add a contribution to a phase", ceremonyContribute),
		phaseCommand("verify", "Verify the contribution chain of a phase", ceremonyVerify),
		finalizeCmd,
	)
	return c
}

func phaseCommand(use, short string, run func(*cobra.Command, []string) error) *cobra.Command {
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE:  run,
	}
	c.Flags().Int(phaseKey, 0, "ceremony phase, 1 or 2")
	return c
}

func ceremonyFlags(flags *pflag.FlagSet) (*ceremony.Ceremony, int, error) {
	dir, err := requireString(flags, dirKey)
	if err != nil {
		return nil, 0, err
	}
	phase := 0
	if flags.Lookup(phaseKey) != nil {
		if phase, err = flags.GetInt(phaseKey); err != nil {
			return nil, 0, err
		}
		if phase != 1 && phase != 2 {
			return nil, 0, usageError("--%s must be 1 or 2", phaseKey)
		}
	}
	return ceremony.New(dir), phase, nil
}

func ceremonyInit(c *cobra.Command, _ []string) error {
	cer, _, err := ceremonyFlags(c.Flags())
	if err != nil {
		return err
	}
	force, err := c.Flags().GetBool(forceKey)
	if err != nil {
		return err
	}
	info, err := cer.Init(force)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.OutOrStdout(), "ceremony initialized in %s: %d constraints, domain size %d\n",
		cer.Dir(), info.Constraints, info.DomainSize)
	return nil
}

func ceremonyContribute(c *cobra.Command, _ []string) error {
	cer, phase, err := ceremonyFlags(c.Flags())
	if err != nil {
		return err
	}
	index, hash, err := cer.Contribute(phase)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.OutOrStdout(), "phase %d contribution %d written, sha256 %s\n", phase, index, hash)
	return nil
}

func ceremonyVerify(c *cobra.Command, _ []string) error {
	cer, phase, err := ceremonyFlags(c.Flags())
	if err != nil {
		return err
	}
	n, err := cer.Verify(phase)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.OutOrStdout(), "phase %d chain of %d contributions is valid\n", phase, n)
	return nil
}

func ceremonyFinalize(c *cobra.Command, _ []string) error {
	cer, phase, err := ceremonyFlags(c.Flags())
	if err != nil {
		return err
	}
	beacon, err := hexFlag(c.Flags(), beaconKey)
	if err != nil {
		return err
	}
	if err := cer.Finalize(phase, beacon); err != nil {
		return err
	}
	fmt.Fprintf(c.OutOrStdout(), "phase %d finalized\n", phase)
	return nil
}
