// Package config holds the file layout of a setup directory and the
// environment variables that tune the tools.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Setup directory layout.
const (
	ConstraintSystemFile   = "ccs.bin"
	CommonsFile            = "commons.bin"
	ProvingKeyFile         = "pk.bin"
	VerifyingKeyFile       = "vk.bin"
	VerifyingKeyJSONFile   = "vk.json"
	Phase1ContributionFile = "phase1_%04d.bin"
	Phase2ContributionFile = "phase2_%04d.bin"
)

// Proof bundle layout.
const (
	BundleVerifyingKeyFile = "vk.json"
	BundleProofFile        = "proof.json"
	BundlePublicFile       = "public.json"
)

// Environment variables.
const (
	EnvSetupDir          = "PEACE_SETUP_DIR"
	EnvLogLevel          = "PEACE_LOG_LEVEL"
	EnvAllowZeroBlinding = "PEACE_ALLOW_ZERO_BLINDING"
	EnvArtifactsDir      = "PEACE_ARTIFACTS_DIR"
	EnvCheckHashes       = "PEACE_CHECK_HASHES"
	EnvDataDir           = "PEACE_DATA_DIR"
)

// DefaultSetupDir is used when neither a flag nor PEACE_SETUP_DIR is set.
const DefaultSetupDir = "setup"

// SetupDir returns the configured setup directory.
func SetupDir() string {
	return envOr(EnvSetupDir, DefaultSetupDir)
}

// DefaultLogLevel is used when neither a flag nor PEACE_LOG_LEVEL is set.
const DefaultLogLevel = "info"

// LogLevel returns the configured log level.
func LogLevel() string {
	return envOr(EnvLogLevel, DefaultLogLevel)
}

// DataDir returns the directory of the local asset store.
func DataDir() string {
	if v := os.Getenv(EnvDataDir); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".peace"
	}
	return filepath.Join(home, ".peace")
}

// ArtifactsDir returns the download cache of setup artifacts.
func ArtifactsDir() string {
	if v := os.Getenv(EnvArtifactsDir); v != "" {
		return v
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "peace-artifacts")
	}
	return filepath.Join(cache, "peace-artifacts")
}

// CheckHashes reports whether artifact hashes are checked. Defaults to
// true; only an explicit false value disables it.
func CheckHashes() bool {
	return boolEnv(EnvCheckHashes, true)
}

// AllowZeroBlinding reports whether provers accept r = 0.
func AllowZeroBlinding() bool {
	return boolEnv(EnvAllowZeroBlinding, false)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func boolEnv(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
