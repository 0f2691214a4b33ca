package types

// Domain separation tags. Every tag is used for exactly one role and must be
// matched byte for byte by any other implementation of the protocol.
const (
	SchnorrTag      = "SCHNORR|PROOF|v1|"
	BindingTag      = "BINDING|PROOF|v1|"
	HashToScalarTag = "HASH|To|Int|v1|"
	WalletKeyTag    = "ED25519|To|BLS12381|v1|"
	KappaTag        = "F12|To|Hex|v1|"

	EciesSaltTag = "SLT|ECIES|AES-GCM|v1|"
	EciesKemTag  = "KEM|ECIES|AES-GCM|v1|"
	EciesAADTag  = "AAD|ECIES|AES-GCM|v1|"
	EciesMsgTag  = "MSG|ECIES|AES-GCM|v1|"
)
