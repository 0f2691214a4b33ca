package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
	"github.com/logical-mechanism/peace-protocol/circuits/witnessderivation"
	"github.com/logical-mechanism/peace-protocol/config"
	"github.com/logical-mechanism/peace-protocol/log"
	"github.com/logical-mechanism/peace-protocol/prover"
	"github.com/logical-mechanism/peace-protocol/reencrypt"
	"github.com/logical-mechanism/peace-protocol/register"
	"github.com/logical-mechanism/peace-protocol/storage"
	"github.com/logical-mechanism/peace-protocol/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

func assetCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "asset",
		Short: "Create, re-encrypt and open assets in the local store",
	}
	c.PersistentFlags().String(dbKey, config.DataDir(), "asset store directory")

	create := &cobra.Command{
		Use:   "create",
		Short: "Seal a payload in a new asset owned by --key",
		Args:  cobra.NoArgs,
		RunE:  assetCreate,
	}
	create.Flags().String(keyKey, "", "owner wallet key, hex")
	create.Flags().String(idKey, "", "asset id")
	create.Flags().String(inKey, "", "file holding the payload")
	create.Flags().String(messageKey, "", "payload given inline")

	hop := &cobra.Command{
		Use:   "hop",
		Short: "Re-encrypt the asset held by --key to the register --to",
		Args:  cobra.NoArgs,
		RunE:  assetHop,
	}
	hop.Flags().String(keyKey, "", "current holder wallet key, hex")
	hop.Flags().String(idKey, "", "asset id")
	hop.Flags().String(toKey, "", "recipient register, compressed G1 hex")
	hop.Flags().String(proveOutKey, "", "prove the witness derivation and write the bundle here")
	hop.Flags().String(secretsOutKey, "", "write the hop secrets to this file, mode 0600")
	hop.Flags().String(setupDirKey, config.SetupDir(), "setup directory used with --prove-out")

	open := &cobra.Command{
		Use:   "open",
		Short: "Decrypt the payload of an asset held by --key",
		Args:  cobra.NoArgs,
		RunE:  assetOpen,
	}
	open.Flags().String(keyKey, "", "holder wallet key, hex")
	open.Flags().String(idKey, "", "asset id")
	open.Flags().String(outKey, "", "write the payload to this file instead of stdout")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the stored assets",
		Args:  cobra.NoArgs,
		RunE:  assetList,
	}

	c.AddCommand(create, hop, open, list)
	return c
}

func openStorage(flags *pflag.FlagSet) (*storage.Storage, error) {
	dir, err := requireString(flags, dbKey)
	if err != nil {
		return nil, err
	}
	database, err := metadb.New(db.TypePebble, dir)
	if err != nil {
		return nil, fmt.Errorf("open asset store: %w", err)
	}
	return storage.New(database), nil
}

func payloadFlags(flags *pflag.FlagSet) ([]byte, error) {
	in, err := flags.GetString(inKey)
	if err != nil {
		return nil, err
	}
	msg, err := flags.GetString(messageKey)
	if err != nil {
		return nil, err
	}
	switch {
	case in != "" && msg != "":
		return nil, usageError("--%s and --%s are exclusive", inKey, messageKey)
	case in != "":
		return os.ReadFile(in)
	case msg != "":
		return []byte(msg), nil
	default:
		return nil, usageError("one of --%s or --%s is required", inKey, messageKey)
	}
}

func assetCreate(c *cobra.Command, _ []string) error {
	flags := c.Flags()
	owner, err := identityFlag(flags)
	if err != nil {
		return err
	}
	id, err := requireString(flags, idKey)
	if err != nil {
		return err
	}
	payload, err := payloadFlags(flags)
	if err != nil {
		return err
	}
	stg, err := openStorage(flags)
	if err != nil {
		return err
	}
	defer stg.Close()

	e, err := reencrypt.NewEntry(owner, []byte(id), payload)
	if err != nil {
		return err
	}
	if err := stg.SetAsset(e); err != nil {
		return err
	}
	fmt.Fprintf(c.OutOrStdout(), "asset %s created, owner %s\n", id, owner.Public.Hex())
	return nil
}

// hopSecrets is the --secrets-out document of asset hop. It holds the
// flags prove needs to build the witness-derivation proof of the hop later.
type hopSecrets struct {
	AssetID string        `json:"assetId"`
	Level   uint32        `json:"level"`
	A       *types.BigInt `json:"a"`
	R       *types.BigInt `json:"r"`
	HK      *types.BigInt `json:"hk"`
	V       string        `json:"v"`
	W0      string        `json:"w0"`
	W1      string        `json:"w1"`
}

func writeHopSecrets(path string, index uint32, h *reencrypt.Hop, secrets *reencrypt.HopSecrets) error {
	doc := &hopSecrets{
		AssetID: string(h.AssetID),
		Level:   index,
		A:       (*types.BigInt)(secrets.A),
		R:       (*types.BigInt)(secrets.R),
		HK:      (*types.BigInt)(secrets.HK),
		V:       h.Recipient.Public.Hex(),
		W0:      h.Witness.W.Hex(),
		W1:      h.Level.R2.Hex(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode hop secrets: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write hop secrets: %w", err)
	}
	log.Infow("hop secrets written", "asset", doc.AssetID, "file", path)
	return nil
}

// assetHop builds the hop, writes its proof and secrets, and only then
// stores it, so a stored hop can always be proven.
func assetHop(c *cobra.Command, _ []string) error {
	flags := c.Flags()
	holder, err := identityFlag(flags)
	if err != nil {
		return err
	}
	id, err := requireString(flags, idKey)
	if err != nil {
		return err
	}
	to, err := g1Flag(flags, toKey)
	if err != nil {
		return err
	}
	proveOut, err := flags.GetString(proveOutKey)
	if err != nil {
		return err
	}
	secretsOut, err := flags.GetString(secretsOutKey)
	if err != nil {
		return err
	}
	if proveOut == "" && secretsOut == "" {
		return usageError("one of --%s or --%s is required, the hop secrets are lost otherwise", proveOutKey, secretsOutKey)
	}
	var session *prover.Session
	if proveOut != "" {
		setupDir, err := requireString(flags, setupDirKey)
		if err != nil {
			return err
		}
		if session, err = prover.LoadSessionDir(c.Context(), setupDir, witnessderivation.Policy{}); err != nil {
			return err
		}
	}

	stg, err := openStorage(flags)
	if err != nil {
		return err
	}
	defer stg.Close()

	levels, err := stg.Levels([]byte(id))
	if err != nil {
		return err
	}
	last := levels[len(levels)-1]
	if !last.Recipient.Public.Equal(holder.Public) {
		return types.ErrProofVerification.Withf("asset %s is not held by %s", id, holder.Public.Hex())
	}
	h, secrets, err := reencrypt.NewHop(holder, register.New(to), []byte(id), last.Kind, last.Level)
	if err != nil {
		return err
	}
	if err := reencrypt.VerifyHop(h); err != nil {
		return err
	}
	if session != nil {
		if err := proveTo(c, session, secrets.CircuitInputs(h), proveOut); err != nil {
			return err
		}
		fmt.Fprintln(c.OutOrStdout(), "witness derivation proof written to", proveOut)
	}
	if secretsOut != "" {
		if err := writeHopSecrets(secretsOut, last.Index+1, h, secrets); err != nil {
			return err
		}
	}

	index, err := stg.AppendHop(h)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.OutOrStdout(), "asset %s re-encrypted to %s, level %d\n", id, to.Hex(), index)
	return nil
}

func assetOpen(c *cobra.Command, _ []string) error {
	flags := c.Flags()
	holder, err := identityFlag(flags)
	if err != nil {
		return err
	}
	id, err := requireString(flags, idKey)
	if err != nil {
		return err
	}
	out, err := flags.GetString(outKey)
	if err != nil {
		return err
	}
	stg, err := openStorage(flags)
	if err != nil {
		return err
	}
	defer stg.Close()

	a, err := stg.Asset([]byte(id))
	if err != nil {
		return err
	}
	latest, history, err := stg.Chain([]byte(id))
	if err != nil {
		return err
	}
	payload, err := reencrypt.OpenCapsule(holder, latest, history, a.Entry.Capsule)
	if err != nil {
		return types.ErrProofVerification.Withf("cannot open asset %s with this key: %v", id, err)
	}
	if out == "" {
		_, err = c.OutOrStdout().Write(payload)
		return err
	}
	if err := renameio.WriteFile(out, payload, 0o600); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	log.Infow("payload written", "asset", id, "file", out, "size", len(payload))
	return nil
}

func assetList(c *cobra.Command, _ []string) error {
	stg, err := openStorage(c.Flags())
	if err != nil {
		return err
	}
	defer stg.Close()

	ids, err := stg.ListAssets()
	if err != nil {
		return err
	}
	out := c.OutOrStdout()
	for _, id := range ids {
		a, err := stg.Asset(id)
		if err != nil {
			return err
		}
		holder := a.Entry.Owner.Public
		if a.Levels > 1 {
			l, err := stg.Level(id, a.Levels-1)
			if err != nil {
				return err
			}
			holder = l.Recipient.Public
		}
		fmt.Fprintf(out, "%s\tlevels=%d\tholder=%s\n", id, a.Levels, holder.Hex())
	}
	return nil
}
