package ml

import (
	"math"
)

const tau = 1e-12

// smoSolver solves the C-SVC dual for one binary problem with labels y in
// {+1,-1}, using second order working set selection.
type smoSolver struct {
	y       []float64
	c       float64
	eps     float64
	maxIter int
	kernel  *kernelMatrix
}

type smoResult struct {
	alpha      []float64
	rho        float64
	iterations int
	converged  bool
}

func defaultMaxIter(l int) int {
	if l > math.MaxInt32/100 {
		return math.MaxInt32
	}
	return max(10_000_000, 100*l)
}

func (s *smoSolver) solve() smoResult {
	l := len(s.y)
	alpha := make([]float64, l)
	grad := make([]float64, l)
	for t := range grad {
		grad[t] = -1
	}
	maxIter := s.maxIter
	if maxIter <= 0 {
		maxIter = defaultMaxIter(l)
	}

	res := smoResult{}
	for res.iterations = 0; res.iterations < maxIter; res.iterations++ {
		i, j, ok := s.selectWorkingSet(alpha, grad)
		if !ok {
			res.converged = true
			break
		}
		s.update(i, j, alpha, grad)
	}
	res.alpha = alpha
	res.rho = s.computeRho(alpha, grad)
	return res
}

func (s *smoSolver) inUp(t int, alpha []float64) bool {
	if s.y[t] > 0 {
		return alpha[t] < s.c
	}
	return alpha[t] > 0
}

func (s *smoSolver) inLow(t int, alpha []float64) bool {
	if s.y[t] > 0 {
		return alpha[t] > 0
	}
	return alpha[t] < s.c
}

func (s *smoSolver) selectWorkingSet(alpha, grad []float64) (int, int, bool) {
	gmax := math.Inf(-1)
	i := -1
	for t := range s.y {
		if !s.inUp(t, alpha) {
			continue
		}
		if v := -s.y[t] * grad[t]; v >= gmax {
			gmax = v
			i = t
		}
	}
	if i < 0 {
		return -1, -1, false
	}

	ki := s.kernel.row(i)
	gmax2 := math.Inf(-1)
	j := -1
	objMin := math.Inf(1)
	for t := range s.y {
		if !s.inLow(t, alpha) {
			continue
		}
		yg := s.y[t] * grad[t]
		if yg >= gmax2 {
			gmax2 = yg
		}
		gradDiff := gmax + yg
		if gradDiff <= 0 {
			continue
		}
		quad := s.kernel.diag[i] + s.kernel.diag[t] - 2*ki[t]
		if quad <= 0 {
			quad = tau
		}
		if obj := -(gradDiff * gradDiff) / quad; obj <= objMin {
			objMin = obj
			j = t
		}
	}
	if gmax+gmax2 < s.eps || j < 0 {
		return -1, -1, false
	}
	return i, j, true
}

func (s *smoSolver) update(i, j int, alpha, grad []float64) {
	ki := s.kernel.row(i)
	kj := s.kernel.row(j)
	c := s.c
	oldI, oldJ := alpha[i], alpha[j]

	quad := s.kernel.diag[i] + s.kernel.diag[j] - 2*ki[j]
	if quad <= 0 {
		quad = tau
	}

	if s.y[i] != s.y[j] {
		delta := (-grad[i] - grad[j]) / quad
		diff := alpha[i] - alpha[j]
		alpha[i] += delta
		alpha[j] += delta
		if diff > 0 {
			if alpha[j] < 0 {
				alpha[j] = 0
				alpha[i] = diff
			}
		} else if alpha[i] < 0 {
			alpha[i] = 0
			alpha[j] = -diff
		}
		if diff > 0 {
			if alpha[i] > c {
				alpha[i] = c
				alpha[j] = c - diff
			}
		} else if alpha[j] > c {
			alpha[j] = c
			alpha[i] = c + diff
		}
	} else {
		delta := (grad[i] - grad[j]) / quad
		sum := alpha[i] + alpha[j]
		alpha[i] -= delta
		alpha[j] += delta
		if sum > c {
			if alpha[i] > c {
				alpha[i] = c
				alpha[j] = sum - c
			}
		} else if alpha[j] < 0 {
			alpha[j] = 0
			alpha[i] = sum
		}
		if sum > c {
			if alpha[j] > c {
				alpha[j] = c
				alpha[i] = sum - c
			}
		} else if alpha[i] < 0 {
			alpha[i] = 0
			alpha[j] = sum
		}
	}

	dI := alpha[i] - oldI
	dJ := alpha[j] - oldJ
	for t := range grad {
		grad[t] += s.y[t] * (s.y[i]*ki[t]*dI + s.y[j]*kj[t]*dJ)
	}
}

func (s *smoSolver) computeRho(alpha, grad []float64) float64 {
	ub := math.Inf(1)
	lb := math.Inf(-1)
	sumFree := 0.0
	nFree := 0
	for t := range s.y {
		yg := s.y[t] * grad[t]
		switch {
		case alpha[t] >= s.c:
			if s.y[t] < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case alpha[t] <= 0:
			if s.y[t] > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			nFree++
			sumFree += yg
		}
	}
	if nFree > 0 {
		return sumFree / float64(nFree)
	}
	return (ub + lb) / 2
}
