package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// TrainTestSplit returns shuffled train and test row indices. The test
// partition holds ceil(n*testRatio) rows; the permutation is fully determined
// by seed.
func TrainTestSplit(n int, testRatio float64, seed int64) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("need at least 2 rows to split, got %d", n)
	}
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("test ratio must be in (0,1), got %v", testRatio)
	}
	nTest := int(math.Ceil(float64(n) * testRatio))
	if nTest >= n {
		nTest = n - 1
	}
	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(n)
	test = append([]int(nil), indices[:nTest]...)
	train = append([]int(nil), indices[nTest:]...)
	return train, test, nil
}

func selectRows(features [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = features[j]
	}
	return out
}

func selectLabels(labels []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = labels[j]
	}
	return out
}
