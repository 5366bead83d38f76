package sparse

import (
	"fmt"
	"math"
	"sort"
)

// Input transforms supported by pretrained models. The transform name comes
// from the model's hyperparameters and is applied after folding.
const (
	TransformNone     = "none"
	TransformBinarize = "binarize"
	TransformTanh     = "tanh"
	TransformLog1p    = "log1p"
)

// FoldTransform folds the columns of a descriptor matrix into foldSize buckets
// (column j lands in j mod foldSize, duplicates within a row are summed) and
// then applies the named value transform. The input matrix is not modified.
func FoldTransform(c *CSR, foldSize int, transform string) (*CSR, error) {
	if foldSize <= 0 {
		return nil, fmt.Errorf("sparse: fold size must be positive, got %d", foldSize)
	}
	out := &CSR{
		Rows:   c.Rows,
		Cols:   foldSize,
		Indptr: make([]int64, 1, c.Rows+1),
	}
	acc := make(map[int64]float32)
	for i := 0; i < c.Rows; i++ {
		for k := range acc {
			delete(acc, k)
		}
		for k := c.Indptr[i]; k < c.Indptr[i+1]; k++ {
			acc[c.Indices[k]%int64(foldSize)] += c.Data[k]
		}
		cols := make([]int64, 0, len(acc))
		for j := range acc {
			cols = append(cols, j)
		}
		sort.Slice(cols, func(a, b int) bool { return cols[a] < cols[b] })
		for _, j := range cols {
			out.Indices = append(out.Indices, j)
			out.Data = append(out.Data, acc[j])
		}
		out.Indptr = append(out.Indptr, int64(len(out.Data)))
	}
	if err := applyTransform(out.Data, transform); err != nil {
		return nil, err
	}
	return out, nil
}

func applyTransform(data []float32, transform string) error {
	switch transform {
	case TransformNone, "":
		return nil
	case TransformBinarize:
		for i, v := range data {
			if v != 0 {
				data[i] = 1
			}
		}
	case TransformTanh:
		for i, v := range data {
			data[i] = float32(math.Tanh(float64(v)))
		}
	case TransformLog1p:
		for i, v := range data {
			data[i] = float32(math.Log1p(float64(v)))
		}
	default:
		return fmt.Errorf("sparse: unknown input transform %q", transform)
	}
	return nil
}
