package sparse

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"chempredd/pkg/types"
)

// File names of the CSR triplet the descriptor tool leaves in its output dir.
const (
	dataFile    = "data.npy"
	indicesFile = "indices.npy"
	indptrFile  = "indptr.npy"
	shapeFile   = "shape.npy"
)

// ReadCSRDir reads a CSR matrix written as four .npy files (data float32,
// indices int64, indptr int64, shape int64 pair) from dir.
func ReadCSRDir(dir string) (*CSR, error) {
	var shape []int64
	if err := readNpy(filepath.Join(dir, shapeFile), &shape); err != nil {
		return nil, err
	}
	if len(shape) != 2 {
		return nil, fmt.Errorf("sparse: %s holds %d values, want 2", shapeFile, len(shape))
	}
	c := &CSR{Rows: int(shape[0]), Cols: int(shape[1])}
	if err := readNpy(filepath.Join(dir, dataFile), &c.Data); err != nil {
		return nil, err
	}
	if err := readNpy(filepath.Join(dir, indicesFile), &c.Indices); err != nil {
		return nil, err
	}
	if err := readNpy(filepath.Join(dir, indptrFile), &c.Indptr); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("sparse: %s: %w", dir, err)
	}
	return c, nil
}

// WriteCSRDir writes the CSR triplet into dir, creating it if needed.
// Inverse of ReadCSRDir; used by tests and by tooling that fakes the
// descriptor tool's output.
func WriteCSRDir(dir string, c *CSR) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeNpy(filepath.Join(dir, shapeFile), []int64{int64(c.Rows), int64(c.Cols)}); err != nil {
		return err
	}
	if err := writeNpy(filepath.Join(dir, dataFile), c.Data); err != nil {
		return err
	}
	if err := writeNpy(filepath.Join(dir, indicesFile), c.Indices); err != nil {
		return err
	}
	return writeNpy(filepath.Join(dir, indptrFile), c.Indptr)
}

// WriteMatrix writes a dense prediction matrix as a 2-D float64 .npy array.
func WriteMatrix(w io.Writer, m types.Matrix) error {
	data := make([]float64, len(m.Data))
	for i, v := range m.Data {
		data[i] = float64(v)
	}
	if m.Rows == 0 || m.Cols == 0 {
		// mat.NewDense panics on zero dims; emit an empty 1-D array instead.
		return npyio.Write(w, []float64{})
	}
	return npyio.Write(w, mat.NewDense(m.Rows, m.Cols, data))
}

func readNpy(path string, ptr any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := npyio.Read(f, ptr); err != nil {
		return fmt.Errorf("sparse: read %s: %w", path, err)
	}
	return nil
}

func writeNpy(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := npyio.Write(f, v); err != nil {
		f.Close()
		return fmt.Errorf("sparse: write %s: %w", path, err)
	}
	return f.Close()
}
