package ml

import (
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ScaleGamma is the "scale" heuristic: 1 / (n_features * Var(X)) over every
// element of the (already standardized) training matrix.
func ScaleGamma(features [][]float64) float64 {
	if len(features) == 0 || len(features[0]) == 0 {
		return 1
	}
	all := make([]float64, 0, len(features)*len(features[0]))
	for _, row := range features {
		all = append(all, row...)
	}
	_, variance := stat.PopMeanVariance(all, nil)
	if variance == 0 {
		return 1
	}
	return 1 / (float64(len(features[0])) * variance)
}

func rbf(gamma float64, a []float64, aNorm float64, b []float64, bNorm float64) float64 {
	d := aNorm + bNorm - 2*floats.Dot(a, b)
	if d < 0 {
		d = 0
	}
	return math.Exp(-gamma * d)
}

func squaredNorm(v []float64) float64 {
	return floats.Dot(v, v)
}

// kernelMatrix evaluates K(x_i, x_j) over a fixed training set, keeping the
// most recently used rows in an LRU cache.
type kernelMatrix struct {
	gamma float64
	x     [][]float64
	norm  []float64
	diag  []float64
	rows  *lru.Cache[int, []float64]
}

func newKernelMatrix(x [][]float64, gamma float64, cacheRows int) (*kernelMatrix, error) {
	if cacheRows <= 0 {
		cacheRows = 1
	}
	cache, err := lru.New[int, []float64](cacheRows)
	if err != nil {
		return nil, err
	}
	k := &kernelMatrix{
		gamma: gamma,
		x:     x,
		norm:  make([]float64, len(x)),
		diag:  make([]float64, len(x)),
		rows:  cache,
	}
	for i, row := range x {
		k.norm[i] = squaredNorm(row)
	}
	for i := range x {
		k.diag[i] = rbf(gamma, x[i], k.norm[i], x[i], k.norm[i])
	}
	return k, nil
}

func (k *kernelMatrix) row(i int) []float64 {
	if r, ok := k.rows.Get(i); ok {
		return r
	}
	r := make([]float64, len(k.x))
	for j := range k.x {
		r[j] = rbf(k.gamma, k.x[i], k.norm[i], k.x[j], k.norm[j])
	}
	k.rows.Add(i, r)
	return r
}
