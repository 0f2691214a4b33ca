package main

import (
	"encoding/hex"
	"math/big"

	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/register"
	"github.com/logical-mechanism/peace-protocol/types"
	"github.com/logical-mechanism/peace-protocol/util"
	"github.com/spf13/pflag"
)

// Flag names shared by several commands.
const (
	aKey                 = "a"
	rKey                 = "r"
	vKey                 = "v"
	w0Key                = "w0"
	w1Key                = "w1"
	r1Key                = "r1"
	g1bKey               = "g1b"
	g2bKey               = "g2b"
	sharedKey            = "shared"
	setupDirKey          = "setup-dir"
	outKey               = "out"
	dirKey               = "dir"
	allowZeroBlindingKey = "allow-zero-blinding"
	phaseKey             = "phase"
	beaconKey            = "beacon"
	forceKey             = "force"
	devKey               = "dev"
	dbKey                = "db"
	keyKey               = "key"
	idKey                = "id"
	toKey                = "to"
	inKey                = "in"
	messageKey           = "message"
	proveOutKey          = "prove-out"
	secretsOutKey        = "secrets-out"
	circuitKey           = "circuit"
	hkKey                = "hk"
)

func requireString(flags *pflag.FlagSet, name string) (string, error) {
	v, err := flags.GetString(name)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", usageError("--%s is required", name)
	}
	return v, nil
}

// scalarFlag reads a decimal or 0x-prefixed hex integer.
func scalarFlag(flags *pflag.FlagSet, name string) (*big.Int, error) {
	v, err := requireString(flags, name)
	if err != nil {
		return nil, err
	}
	k, err := util.ParseBigInt(v)
	if err != nil {
		return nil, types.ErrInvalidScalar.Withf("--%s: %v", name, err)
	}
	return k, nil
}

func g1Flag(flags *pflag.FlagSet, name string) (bls12381.G1, error) {
	v, err := requireString(flags, name)
	if err != nil {
		return bls12381.G1{}, err
	}
	p, err := bls12381.G1FromHex(v)
	if err != nil {
		return bls12381.G1{}, types.ErrMalformedEncoding.Withf("--%s: %v", name, err)
	}
	return p, nil
}

func g2Flag(flags *pflag.FlagSet, name string) (bls12381.G2, error) {
	v, err := requireString(flags, name)
	if err != nil {
		return bls12381.G2{}, err
	}
	p, err := bls12381.G2FromHex(v)
	if err != nil {
		return bls12381.G2{}, types.ErrMalformedEncoding.Withf("--%s: %v", name, err)
	}
	return p, nil
}

// hexFlag reads a hex string, with or without 0x prefix.
func hexFlag(flags *pflag.FlagSet, name string) ([]byte, error) {
	v, err := requireString(flags, name)
	if err != nil {
		return nil, err
	}
	b, err := hex.DecodeString(util.TrimHex(v))
	if err != nil {
		return nil, types.ErrMalformedEncoding.Withf("--%s: %v", name, err)
	}
	return b, nil
}

// identityFlag derives the caller identity from the wallet key given as
// hex in --key.
func identityFlag(flags *pflag.FlagSet) (*register.Identity, error) {
	key, err := hexFlag(flags, keyKey)
	if err != nil {
		return nil, err
	}
	return register.FromWalletKey(key)
}
