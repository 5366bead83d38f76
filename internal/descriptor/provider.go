// Package descriptor delegates SMILES preprocessing to the external
// chemistry-descriptor tool. The tool computes fingerprints and applies the
// key-based bit shuffle; this package only parameterizes, invokes, and parses.
package descriptor

import (
	"context"

	"chempredd/internal/sparse"
)

// Provider prepares a descriptor matrix from a T2-format structure file
// (CSV with input_compound_id,smiles columns). One row per compound, columns
// are shuffled fingerprint bits.
type Provider interface {
	Prepare(ctx context.Context, structureFile string) (*sparse.CSR, error)
}

// unavailableError signals that the external tool is missing or broken, so the
// HTTP layer can return 503 instead of 500.
type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return e.msg }

// ErrUnavailable constructs an unavailableError.
func ErrUnavailable(msg string) error { return unavailableError{msg: msg} }

// IsUnavailable reports whether err indicates a missing/failed descriptor tool.
func IsUnavailable(err error) bool {
	_, ok := err.(unavailableError)
	return ok
}

// badInputError signals a problem with the structure file itself.
type badInputError struct{ msg string }

func (e badInputError) Error() string { return e.msg }

// ErrBadInput constructs a badInputError.
func ErrBadInput(msg string) error { return badInputError{msg: msg} }

// IsBadInput reports whether err indicates an invalid structure file.
func IsBadInput(err error) bool {
	_, ok := err.(badInputError)
	return ok
}
