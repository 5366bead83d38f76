package sparse

import "fmt"

// CSR is a compressed sparse row matrix of float32 values, the layout the
// descriptor toolkit emits (data/indices/indptr triplet, scipy-compatible).
type CSR struct {
	Rows    int
	Cols    int
	Indptr  []int64
	Indices []int64
	Data    []float32
}

// Validate checks the structural invariants of the triplet.
func (c *CSR) Validate() error {
	if c.Rows < 0 || c.Cols < 0 {
		return fmt.Errorf("sparse: negative shape (%d, %d)", c.Rows, c.Cols)
	}
	if len(c.Indptr) != c.Rows+1 {
		return fmt.Errorf("sparse: indptr length %d, want %d", len(c.Indptr), c.Rows+1)
	}
	if len(c.Indices) != len(c.Data) {
		return fmt.Errorf("sparse: indices length %d != data length %d", len(c.Indices), len(c.Data))
	}
	if c.Rows > 0 {
		if c.Indptr[0] != 0 {
			return fmt.Errorf("sparse: indptr[0] = %d, want 0", c.Indptr[0])
		}
		if c.Indptr[c.Rows] != int64(len(c.Data)) {
			return fmt.Errorf("sparse: indptr[last] = %d, want %d", c.Indptr[c.Rows], len(c.Data))
		}
	}
	for i := 0; i < c.Rows; i++ {
		if c.Indptr[i] > c.Indptr[i+1] {
			return fmt.Errorf("sparse: indptr not monotonic at row %d", i)
		}
	}
	for _, j := range c.Indices {
		if j < 0 || j >= int64(c.Cols) {
			return fmt.Errorf("sparse: column index %d out of range [0, %d)", j, c.Cols)
		}
	}
	return nil
}

// NNZ returns the number of stored values.
func (c *CSR) NNZ() int { return len(c.Data) }

// DenseRow expands row i into dst, which must have length Cols. dst is zeroed
// first so it can be reused across rows.
func (c *CSR) DenseRow(i int, dst []float32) {
	for k := range dst {
		dst[k] = 0
	}
	for k := c.Indptr[i]; k < c.Indptr[i+1]; k++ {
		dst[c.Indices[k]] = c.Data[k]
	}
}
