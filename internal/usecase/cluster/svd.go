package cluster

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Reducer projects a batch of embedding vectors into a lower-rank space
// via truncated SVD to stabilize clustering at small sample sizes.
type Reducer struct {
	// Components is the configured target rank. The effective rank is
	// capped at min(Components, featureCount, sampleCount) to avoid
	// over-specification on small batches.
	Components int
}

// Reduce projects vectors onto their leading right singular vectors.
// Row order is preserved.
func (r Reducer) Reduce(vectors [][]float32) ([][]float64, error) {
	n := len(vectors)
	if n == 0 {
		return nil, fmt.Errorf("no vectors to reduce")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("zero-dimensional vectors")
	}

	components := r.Components
	if components > dim {
		components = dim
	}
	if components > n {
		components = n
	}
	if components < 1 {
		components = 1
	}

	data := make([]float64, n*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
		for j, val := range v {
			data[i*dim+j] = float64(val)
		}
	}
	x := mat.NewDense(n, dim, data)

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, fmt.Errorf("svd factorization failed for %dx%d matrix", n, dim)
	}

	var v mat.Dense
	svd.VTo(&v)

	// Projection matrix: first `components` right singular vectors.
	pc := v.Slice(0, dim, 0, components)

	var projected mat.Dense
	projected.Mul(x, pc)

	reduced := make([][]float64, n)
	for i := range reduced {
		row := make([]float64, components)
		for j := 0; j < components; j++ {
			row[j] = projected.At(i, j)
		}
		reduced[i] = row
	}
	return reduced, nil
}
