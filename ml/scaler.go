package ml

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centres each feature on the train mean and divides by the
// population standard deviation. Constant features get a std of 1.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

func (s *StandardScaler) Fit(features [][]float64) error {
	if len(features) == 0 {
		return ErrEmptyTrainingSet
	}
	cols := len(features[0])
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)
	column := make([]float64, len(features))
	for j := 0; j < cols; j++ {
		for i, row := range features {
			if len(row) != cols {
				return fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(row), cols)
			}
			column[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}
	return nil
}

func (s *StandardScaler) Transform(features [][]float64) ([][]float64, error) {
	if len(s.Mean) == 0 {
		return nil, ErrNotFitted
	}
	out := make([][]float64, len(features))
	for i, row := range features {
		scaled, err := s.TransformRow(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}

func (s *StandardScaler) TransformRow(row []float64) ([]float64, error) {
	if len(s.Mean) == 0 {
		return nil, ErrNotFitted
	}
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrDimensionMismatch, len(row), len(s.Mean))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out, nil
}

func (s *StandardScaler) FitTransform(features [][]float64) ([][]float64, error) {
	if err := s.Fit(features); err != nil {
		return nil, err
	}
	return s.Transform(features)
}
