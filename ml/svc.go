package ml

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

// SVCParams are the hyperparameters of an RBF C-SVC.
type SVCParams struct {
	C float64 `json:"c"`
	// Gamma <= 0 selects the "scale" heuristic at fit time.
	Gamma            float64 `json:"gamma"`
	Probability      bool    `json:"probability"`
	ProbabilityFolds int     `json:"probability_folds"`
	Tolerance        float64 `json:"tolerance"`
	CacheRows        int     `json:"-"`
	MaxIter          int     `json:"-"`
	Seed             int64   `json:"seed"`
}

func DefaultSVCParams() SVCParams {
	return SVCParams{
		C:                1.0,
		Probability:      true,
		ProbabilityFolds: 5,
		Tolerance:        1e-3,
		CacheRows:        1024,
		Seed:             42,
	}
}

// BinaryMachine separates class Positive (decision > 0) from class Negative.
type BinaryMachine struct {
	Positive       int         `json:"positive"`
	Negative       int         `json:"negative"`
	SupportVectors [][]float64 `json:"support_vectors"`
	Coef           []float64   `json:"coef"`
	Rho            float64     `json:"rho"`
	ProbA          float64     `json:"prob_a,omitempty"`
	ProbB          float64     `json:"prob_b,omitempty"`
	Converged      bool        `json:"converged"`

	norms []float64
}

func (m *BinaryMachine) prepare() {
	if len(m.norms) == len(m.SupportVectors) {
		return
	}
	m.norms = make([]float64, len(m.SupportVectors))
	for i, sv := range m.SupportVectors {
		m.norms[i] = squaredNorm(sv)
	}
}

func (m *BinaryMachine) decision(gamma float64, x []float64, xNorm float64) float64 {
	sum := 0.0
	for i, sv := range m.SupportVectors {
		sum += m.Coef[i] * rbf(gamma, sv, m.norms[i], x, xNorm)
	}
	return sum - m.Rho
}

// SVC is a one-vs-one RBF support vector classifier. Class codes are the
// integers produced by LabelEncoder.
type SVC struct {
	Params     SVCParams       `json:"params"`
	Gamma      float64         `json:"gamma"`
	NumClasses int             `json:"num_classes"`
	Classes    []int           `json:"classes"`
	Machines   []BinaryMachine `json:"machines"`

	prepareOnce sync.Once
}

func NewSVC(params SVCParams) *SVC {
	return &SVC{Params: params}
}

func (s *SVC) Fit(features [][]float64, labels []int) error {
	if len(features) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(features) != len(labels) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrDimensionMismatch, len(features), len(labels))
	}
	if s.Params.C <= 0 {
		return fmt.Errorf("C must be positive, got %v", s.Params.C)
	}

	numClasses := 0
	present := make(map[int]bool)
	for _, l := range labels {
		if l < 0 {
			return fmt.Errorf("negative class code %d", l)
		}
		present[l] = true
		numClasses = max(numClasses, l+1)
	}
	classes := make([]int, 0, len(present))
	for c := 0; c < numClasses; c++ {
		if present[c] {
			classes = append(classes, c)
		}
	}
	if len(classes) < 2 {
		return errors.New("need at least two classes to fit a classifier")
	}

	gamma := s.Params.Gamma
	if gamma <= 0 {
		gamma = ScaleGamma(features)
	}

	type pair struct{ pos, neg int }
	pairs := make([]pair, 0, len(classes)*(len(classes)-1)/2)
	for a := 0; a < len(classes); a++ {
		for b := a + 1; b < len(classes); b++ {
			pairs = append(pairs, pair{classes[a], classes[b]})
		}
	}

	machines := make([]BinaryMachine, len(pairs))
	errs := make([]error, len(pairs))
	var wg sync.WaitGroup
	for p, pr := range pairs {
		wg.Add(1)
		go func(p int, pos, neg int) {
			defer wg.Done()
			x, y := binarySubset(features, labels, pos, neg)
			m, err := trainBinary(x, y, gamma, s.Params)
			if err != nil {
				errs[p] = fmt.Errorf("fit %d vs %d: %w", pos, neg, err)
				return
			}
			if s.Params.Probability {
				// One generator per pair keeps the result independent of
				// goroutine scheduling.
				rnd := rand.New(rand.NewSource(s.Params.Seed + int64(p)))
				a, b, err := binaryProbability(x, y, gamma, s.Params, rnd)
				if err != nil {
					errs[p] = fmt.Errorf("calibrate %d vs %d: %w", pos, neg, err)
					return
				}
				m.ProbA, m.ProbB = a, b
			}
			m.Positive, m.Negative = pos, neg
			machines[p] = m
		}(p, pr.pos, pr.neg)
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return err
	}

	s.Gamma = gamma
	s.NumClasses = numClasses
	s.Classes = classes
	s.Machines = machines
	return nil
}

func binarySubset(features [][]float64, labels []int, pos, neg int) ([][]float64, []float64) {
	x := make([][]float64, 0)
	y := make([]float64, 0)
	for i, l := range labels {
		switch l {
		case pos:
			x = append(x, features[i])
			y = append(y, 1)
		case neg:
			x = append(x, features[i])
			y = append(y, -1)
		}
	}
	return x, y
}

func trainBinary(x [][]float64, y []float64, gamma float64, params SVCParams) (BinaryMachine, error) {
	kernel, err := newKernelMatrix(x, gamma, params.CacheRows)
	if err != nil {
		return BinaryMachine{}, err
	}
	eps := params.Tolerance
	if eps <= 0 {
		eps = 1e-3
	}
	solver := &smoSolver{y: y, c: params.C, eps: eps, maxIter: params.MaxIter, kernel: kernel}
	res := solver.solve()

	m := BinaryMachine{Rho: res.rho, Converged: res.converged}
	for t, a := range res.alpha {
		if a > 0 {
			m.SupportVectors = append(m.SupportVectors, x[t])
			m.Coef = append(m.Coef, y[t]*a)
		}
	}
	m.prepare()
	return m, nil
}

func (s *SVC) fitted() bool {
	return len(s.Machines) > 0
}

// checkStructure rejects a decoded SVC whose class codes and machines do not
// form a complete one-vs-one ensemble.
func (s *SVC) checkStructure() error {
	k := len(s.Classes)
	if k < 2 {
		return fmt.Errorf("classifier has %d classes, need at least two", k)
	}
	member := make(map[int]bool, k)
	for i, c := range s.Classes {
		if c < 0 || c >= s.NumClasses {
			return fmt.Errorf("class code %d outside [0, %d)", c, s.NumClasses)
		}
		if i > 0 && c <= s.Classes[i-1] {
			return fmt.Errorf("class codes %v not strictly increasing", s.Classes)
		}
		member[c] = true
	}
	if want := k * (k - 1) / 2; len(s.Machines) != want {
		return fmt.Errorf("classifier has %d machines, want %d for %d classes", len(s.Machines), want, k)
	}
	type pair struct{ pos, neg int }
	seen := make(map[pair]bool, len(s.Machines))
	for i, m := range s.Machines {
		if !member[m.Positive] || !member[m.Negative] || m.Positive == m.Negative {
			return fmt.Errorf("machine %d compares unknown classes %d and %d", i, m.Positive, m.Negative)
		}
		p := pair{min(m.Positive, m.Negative), max(m.Positive, m.Negative)}
		if seen[p] {
			return fmt.Errorf("machine %d duplicates classes %d and %d", i, m.Positive, m.Negative)
		}
		seen[p] = true
	}
	return nil
}

func (s *SVC) prepare() {
	s.prepareOnce.Do(func() {
		for i := range s.Machines {
			s.Machines[i].prepare()
		}
	})
}

// DecisionValues returns one decision value per machine for a scaled row.
func (s *SVC) DecisionValues(x []float64) ([]float64, error) {
	if !s.fitted() {
		return nil, ErrNotFitted
	}
	s.prepare()
	xNorm := squaredNorm(x)
	out := make([]float64, len(s.Machines))
	for i := range s.Machines {
		out[i] = s.Machines[i].decision(s.Gamma, x, xNorm)
	}
	return out, nil
}

// Predict assigns each row the class with the most pairwise votes. Ties go to
// the lower class code.
func (s *SVC) Predict(features [][]float64) ([]int, error) {
	out := make([]int, len(features))
	for r, x := range features {
		dec, err := s.DecisionValues(x)
		if err != nil {
			return nil, err
		}
		votes := make([]int, s.NumClasses)
		for i, m := range s.Machines {
			if dec[i] > 0 {
				votes[m.Positive]++
			} else {
				votes[m.Negative]++
			}
		}
		best := s.Classes[0]
		for _, c := range s.Classes {
			if votes[c] > votes[best] {
				best = c
			}
		}
		out[r] = best
	}
	return out, nil
}

// PredictProba returns, per row, a probability for every class code in
// [0, NumClasses). Codes absent from the training data get 0.
func (s *SVC) PredictProba(features [][]float64) ([][]float64, error) {
	if !s.fitted() {
		return nil, ErrNotFitted
	}
	if !s.Params.Probability {
		return nil, ErrProbabilityUnsupported
	}
	k := len(s.Classes)
	pos := make(map[int]int, k)
	for i, c := range s.Classes {
		pos[c] = i
	}

	out := make([][]float64, len(features))
	for r, x := range features {
		dec, err := s.DecisionValues(x)
		if err != nil {
			return nil, err
		}
		pairwise := make([][]float64, k)
		for i := range pairwise {
			pairwise[i] = make([]float64, k)
		}
		for i, m := range s.Machines {
			p := sigmoidPredict(dec[i], m.ProbA, m.ProbB)
			p = min(max(p, minProb), 1-minProb)
			a, b := pos[m.Positive], pos[m.Negative]
			pairwise[a][b] = p
			pairwise[b][a] = 1 - p
		}
		coupled := coupleProbabilities(pairwise)
		row := make([]float64, s.NumClasses)
		for i, c := range s.Classes {
			row[c] = coupled[i]
		}
		out[r] = row
	}
	return out, nil
}
