package config

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"edupredict/dataset"
	"edupredict/ml"
)

// GammaValue returns 0 for "scale" (resolved at fit time) or the parsed number.
func (c *Config) GammaValue() (float64, error) {
	if c.Training.Gamma == "" || c.Training.Gamma == "scale" {
		return 0, nil
	}
	g, err := strconv.ParseFloat(c.Training.Gamma, 64)
	if err != nil || g <= 0 {
		return 0, fmt.Errorf("training.gamma must be \"scale\" or a positive number, got %q", c.Training.Gamma)
	}
	return g, nil
}

func (c *Config) DelimiterRune() (rune, error) {
	switch c.Dataset.Delimiter {
	case "", "auto":
		return 0, nil
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(c.Dataset.Delimiter)
	if size != len(c.Dataset.Delimiter) || r == utf8.RuneError {
		return 0, fmt.Errorf("dataset.delimiter must be a single character, got %q", c.Dataset.Delimiter)
	}
	return r, nil
}

func (c *Config) DatasetOptions() dataset.Options {
	delim, _ := c.DelimiterRune()
	return dataset.Options{
		TargetColumn: c.Dataset.TargetColumn,
		Delimiter:    delim,
		Encoding:     c.Dataset.Encoding,
	}
}

func (c *Config) TrainingConfig() ml.TrainingConfig {
	gamma, _ := c.GammaValue()
	return ml.TrainingConfig{
		TestRatio: c.Training.TestRatio,
		Seed:      *c.Training.Seed,
		SVC: ml.SVCParams{
			C:                c.Training.C,
			Gamma:            gamma,
			Probability:      *c.Training.Probability,
			ProbabilityFolds: c.Training.ProbabilityFolds,
			Tolerance:        c.Training.Tolerance,
			CacheRows:        c.Training.CacheRows,
			MaxIter:          c.Training.MaxIter,
			Seed:             *c.Training.Seed,
		},
	}
}
