package ml

import (
	"math"
	"math/rand"
)

const minProb = 1e-7

// binaryProbability fits Platt's sigmoid on decision values obtained by
// k-fold cross validation, so the calibration never sees a machine's own
// training rows.
func binaryProbability(x [][]float64, y []float64, gamma float64, params SVCParams, rnd *rand.Rand) (float64, float64, error) {
	l := len(y)
	folds := params.ProbabilityFolds
	if folds < 2 {
		folds = 5
	}
	if folds > l {
		folds = l
	}
	perm := rnd.Perm(l)
	dec := make([]float64, l)

	for f := 0; f < folds; f++ {
		begin := f * l / folds
		end := (f + 1) * l / folds

		trainX := make([][]float64, 0, l-(end-begin))
		trainY := make([]float64, 0, l-(end-begin))
		pos, neg := 0, 0
		for _, idx := range append(append([]int(nil), perm[:begin]...), perm[end:]...) {
			trainX = append(trainX, x[idx])
			trainY = append(trainY, y[idx])
			if y[idx] > 0 {
				pos++
			} else {
				neg++
			}
		}

		switch {
		case pos == 0 && neg == 0:
			for _, idx := range perm[begin:end] {
				dec[idx] = 0
			}
		case pos > 0 && neg == 0:
			for _, idx := range perm[begin:end] {
				dec[idx] = 1
			}
		case pos == 0 && neg > 0:
			for _, idx := range perm[begin:end] {
				dec[idx] = -1
			}
		default:
			m, err := trainBinary(trainX, trainY, gamma, params)
			if err != nil {
				return 0, 0, err
			}
			for _, idx := range perm[begin:end] {
				dec[idx] = m.decision(gamma, x[idx], squaredNorm(x[idx]))
			}
		}
	}

	a, b := sigmoidTrain(dec, y)
	return a, b, nil
}

// sigmoidTrain finds A, B minimising the negative log likelihood of
// P(y=1|f) = 1 / (1 + exp(A*f + B)), with Newton steps and backtracking.
func sigmoidTrain(dec []float64, y []float64) (float64, float64) {
	var prior1, prior0 float64
	for _, v := range y {
		if v > 0 {
			prior1++
		} else {
			prior0++
		}
	}

	const (
		maxIter = 100
		minStep = 1e-10
		sigma   = 1e-12
		eps     = 1e-5
	)
	hiTarget := (prior1 + 1) / (prior1 + 2)
	loTarget := 1 / (prior0 + 2)
	t := make([]float64, len(y))
	for i, v := range y {
		if v > 0 {
			t[i] = hiTarget
		} else {
			t[i] = loTarget
		}
	}

	a := 0.0
	b := math.Log((prior0 + 1) / (prior1 + 1))
	fval := sigmoidLoss(dec, t, a, b)

	for iter := 0; iter < maxIter; iter++ {
		h11, h22, h21 := sigma, sigma, 0.0
		g1, g2 := 0.0, 0.0
		for i, f := range dec {
			fApB := f*a + b
			var p, q float64
			if fApB >= 0 {
				e := math.Exp(-fApB)
				p = e / (1 + e)
				q = 1 / (1 + e)
			} else {
				e := math.Exp(fApB)
				p = 1 / (1 + e)
				q = e / (1 + e)
			}
			d2 := p * q
			h11 += f * f * d2
			h22 += d2
			h21 += f * d2
			d1 := t[i] - p
			g1 += f * d1
			g2 += d1
		}
		if math.Abs(g1) < eps && math.Abs(g2) < eps {
			break
		}

		det := h11*h22 - h21*h21
		dA := -(h22*g1 - h21*g2) / det
		dB := -(-h21*g1 + h11*g2) / det
		gd := g1*dA + g2*dB

		step := 1.0
		for step >= minStep {
			newA := a + step*dA
			newB := b + step*dB
			newF := sigmoidLoss(dec, t, newA, newB)
			if newF < fval+0.0001*step*gd {
				a, b, fval = newA, newB, newF
				break
			}
			step /= 2
		}
		if step < minStep {
			break
		}
	}
	return a, b
}

func sigmoidLoss(dec, t []float64, a, b float64) float64 {
	f := 0.0
	for i, d := range dec {
		fApB := d*a + b
		if fApB >= 0 {
			f += t[i]*fApB + math.Log1p(math.Exp(-fApB))
		} else {
			f += (t[i]-1)*fApB + math.Log1p(math.Exp(fApB))
		}
	}
	return f
}

func sigmoidPredict(dec, a, b float64) float64 {
	fApB := dec*a + b
	if fApB >= 0 {
		return math.Exp(-fApB) / (1 + math.Exp(-fApB))
	}
	return 1 / (1 + math.Exp(fApB))
}

// coupleProbabilities turns pairwise estimates r[i][j] ~ P(i | i or j) into a
// single distribution over k classes (Wu, Lin and Weng, method 2).
func coupleProbabilities(r [][]float64) []float64 {
	k := len(r)
	p := make([]float64, k)
	if k == 2 {
		p[0], p[1] = r[0][1], r[1][0]
		return p
	}

	maxIter := max(100, k)
	eps := 0.005 / float64(k)
	q := make([][]float64, k)
	for i := range q {
		q[i] = make([]float64, k)
	}
	qp := make([]float64, k)
	for t := 0; t < k; t++ {
		p[t] = 1 / float64(k)
		for j := 0; j < t; j++ {
			q[t][t] += r[j][t] * r[j][t]
			q[t][j] = q[j][t]
		}
		for j := t + 1; j < k; j++ {
			q[t][t] += r[j][t] * r[j][t]
			q[t][j] = -r[j][t] * r[t][j]
		}
	}

	for iter := 0; iter < maxIter; iter++ {
		pqp := 0.0
		for t := 0; t < k; t++ {
			qp[t] = 0
			for j := 0; j < k; j++ {
				qp[t] += q[t][j] * p[j]
			}
			pqp += p[t] * qp[t]
		}
		maxErr := 0.0
		for t := 0; t < k; t++ {
			maxErr = math.Max(maxErr, math.Abs(qp[t]-pqp))
		}
		if maxErr < eps {
			break
		}
		for t := 0; t < k; t++ {
			diff := (-qp[t] + pqp) / q[t][t]
			p[t] += diff
			pqp = (pqp + diff*(diff*q[t][t]+2*qp[t])) / (1 + diff) / (1 + diff)
			for j := 0; j < k; j++ {
				qp[j] = (qp[j] + diff*q[t][j]) / (1 + diff)
				p[j] /= 1 + diff
			}
		}
	}
	return p
}
