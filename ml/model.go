package ml

import "errors"

var (
	ErrNotFitted              = errors.New("model not fitted")
	ErrProbabilityUnsupported = errors.New("probability estimates not available for this model")
	ErrDimensionMismatch      = errors.New("feature dimension mismatch")
	ErrEmptyTrainingSet       = errors.New("training set is empty")
)

// Classifier is the fitted estimator at the end of a Pipeline.
type Classifier interface {
	Fit(features [][]float64, labels []int) error
	Predict(features [][]float64) ([]int, error)
	PredictProba(features [][]float64) ([][]float64, error)
}

// Transformer is a preprocessing step fitted on the train partition only.
type Transformer interface {
	Fit(features [][]float64) error
	Transform(features [][]float64) ([][]float64, error)
}
