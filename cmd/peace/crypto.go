package main

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/logical-mechanism/peace-protocol/crypto/kappa"
	"github.com/logical-mechanism/peace-protocol/level"
	"github.com/logical-mechanism/peace-protocol/reencrypt"
	"github.com/spf13/cobra"
)

func hashCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "hash",
		Short: "Print the digest hk of e([a]g, h0)",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			a, err := scalarFlag(c.Flags(), aKey)
			if err != nil {
				return err
			}
			hk, err := kappa.HK(a)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), hex.EncodeToString(kappa.Bytes(hk)))
			return nil
		},
	}
	c.Flags().String(aKey, "", "level secret a (decimal or 0x hex)")
	return c
}

func decryptHopCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "decrypt-hop",
		Short: "Recover the digest of one level from its points and a shared point",
		Long: `Recover the digest of a level. Without --g2b the level is the newest
one and --shared is [sk]h0 of its holder. With --g2b the level is completed
and --shared is [k]p for the digest k of the level after it.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			flags := c.Flags()
			r1, err := g1Flag(flags, r1Key)
			if err != nil {
				return err
			}
			r2, err := g1Flag(flags, g1bKey)
			if err != nil {
				return err
			}
			shared, err := g2Flag(flags, sharedKey)
			if err != nil {
				return err
			}
			var digest *big.Int
			if flags.Changed(g2bKey) {
				r5, err := g2Flag(flags, g2bKey)
				if err != nil {
					return err
				}
				digest, err = reencrypt.DecryptFull(level.FullLevel{R1: r1, R2G1: r2, R2G2: r5}, shared)
				if err != nil {
					return err
				}
			} else {
				digest, err = reencrypt.DecryptHalf(level.HalfLevel{R1: r1, R2: r2}, shared)
				if err != nil {
					return err
				}
			}
			fmt.Fprintln(c.OutOrStdout(), hex.EncodeToString(kappa.Bytes(digest)))
			return nil
		},
	}
	flags := c.Flags()
	flags.String(r1Key, "", "level r1, compressed G1 hex")
	flags.String(g1bKey, "", "level r2 in G1, compressed hex")
	flags.String(g2bKey, "", "witness r5 of a completed level, compressed G2 hex")
	flags.String(sharedKey, "", "shared point, compressed G2 hex")
	return c
}

func registerCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "register",
		Short: "Print the public register derived from a wallet key",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			id, err := identityFlag(c.Flags())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), id.Public.Hex())
			return nil
		},
	}
	c.Flags().String(keyKey, "", "wallet key, hex")
	return c
}
