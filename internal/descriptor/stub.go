package descriptor

import (
	"context"

	"chempredd/internal/sparse"
)

// StubProvider returns a fixed matrix or error. It keeps the rest of the
// pipeline exercisable in tests without the external tool installed.
type StubProvider struct {
	Matrix *sparse.CSR
	Err    error
	// Calls records the structure files passed to Prepare.
	Calls []string
}

func (s *StubProvider) Prepare(ctx context.Context, structureFile string) (*sparse.CSR, error) {
	s.Calls = append(s.Calls, structureFile)
	if s.Err != nil {
		return nil, s.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Matrix, nil
}
