package circuits

// The circuits package contains the helpers shared by the zkSNARK circuits
// of the re-encryption protocol. Both circuits are compiled over the
// BLS12-381 scalar field, so the base field arithmetic of the curve is
// emulated with six 64-bit limbs per coordinate.
//
// +--------------------+
// |      Witness       |  e([a]g, h0) -> MiMC -> hk     <- main relation
// |     Derivation     |  W0 == [hk]g, W1 == [a]g + [r]V
// +--------------------+
//
// +--------------------+
// |      Witness       |  sha256(compress([hk]g))      <- for consumers
// |     Commitment     |  without pairings
// +--------------------+
//
// The proving key and constraint system are large, fully resident
// artifacts. They are produced by the ceremony package, stored with the
// helpers in this package and loaded by the prover session.
