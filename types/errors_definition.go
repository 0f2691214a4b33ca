package types

import "errors"

// The error codes are grouped by what the caller can do about them:
//
//   - 1000-1999: the input is malformed or degenerate
//   - 2000-2999: the input is well-formed but cryptographically invalid
//   - 3000-3999: the setup or ceremony state is inconsistent
//   - 4000-4999: storage lookups
//
// Do not change the codes of existing errors; append new ones.
var (
	ErrMalformedEncoding = Error{Code: 1001, Err: errors.New("malformed encoding")}
	ErrInvalidRegister   = Error{Code: 1002, Err: errors.New("invalid register")}
	ErrInvalidScalar     = Error{Code: 1003, Err: errors.New("invalid scalar")}
	ErrInvalidArgument   = Error{Code: 1004, Err: errors.New("invalid argument")}

	ErrProofVerification    = Error{Code: 2001, Err: errors.New("proof verification failed")}
	ErrCircuitUnsatisfiable = Error{Code: 2002, Err: errors.New("circuit unsatisfiable")}

	ErrCeremonyChainBroken  = Error{Code: 3001, Err: errors.New("ceremony chain broken")}
	ErrCeremonyState        = Error{Code: 3002, Err: errors.New("invalid ceremony state")}
	ErrSetupArtifactCorrupt = Error{Code: 3003, Err: errors.New("setup artifact corrupt")}

	ErrNotFound = Error{Code: 4001, Err: errors.New("not found")}
)

// Class returns the code range of err: 1 for malformed input, 2 for
// cryptographically invalid input, 3 for setup inconsistencies, 4 for
// storage lookups and 0 for unclassified errors.
func Class(err error) int {
	var e Error
	if !errors.As(err, &e) {
		return 0
	}
	return e.Code / 1000
}
