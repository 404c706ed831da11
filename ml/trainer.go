package ml

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type TrainingConfig struct {
	TestRatio float64
	Seed      int64
	SVC       SVCParams
}

func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		TestRatio: 0.2,
		Seed:      42,
		SVC:       DefaultSVCParams(),
	}
}

type TrainingResult struct {
	Artifact   *Artifact
	Evaluation Evaluation
	TrainRows  int
	TestRows   int
	Duration   time.Duration
}

// Train encodes targets, splits, fits scaler+SVC on the train partition and
// scores the test partition. features must follow FeatureNames order.
func Train(features [][]float64, targets []string, config TrainingConfig, logger *zap.Logger) (*TrainingResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(features) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(features) != len(targets) {
		return nil, fmt.Errorf("%w: %d rows, %d targets", ErrDimensionMismatch, len(features), len(targets))
	}
	for i, row := range features {
		if len(row) != NumFeatures() {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(row), NumFeatures())
		}
	}
	start := time.Now()

	encoder := &LabelEncoder{}
	labels, err := encoder.FitTransform(targets)
	if err != nil {
		return nil, err
	}
	classes := encoder.Classes()
	if len(classes) < 2 {
		return nil, errors.New("dataset must contain at least two target classes")
	}
	mapping := make(map[string]int, len(classes))
	for i, c := range classes {
		mapping[c] = i
	}
	logger.Info("target mapping", zap.Any("classes", mapping))

	trainIdx, testIdx, err := TrainTestSplit(len(features), config.TestRatio, config.Seed)
	if err != nil {
		return nil, err
	}
	trainX, trainY := selectRows(features, trainIdx), selectLabels(labels, trainIdx)
	testX, testY := selectRows(features, testIdx), selectLabels(labels, testIdx)

	params := config.SVC
	params.Seed = config.Seed
	pipeline := NewPipeline(params)

	logger.Info("fitting pipeline",
		zap.Int("train_rows", len(trainX)),
		zap.Int("test_rows", len(testX)),
		zap.Float64("c", params.C),
		zap.Bool("probability", params.Probability),
	)
	if err := pipeline.Fit(trainX, trainY); err != nil {
		return nil, fmt.Errorf("fit pipeline: %w", err)
	}
	for _, m := range pipeline.Classifier.Machines {
		if !m.Converged {
			logger.Warn("solver hit iteration limit",
				zap.String("positive", encoder.Label(m.Positive)),
				zap.String("negative", encoder.Label(m.Negative)),
			)
		}
	}

	predicted, err := pipeline.Predict(testX)
	if err != nil {
		return nil, fmt.Errorf("score test partition: %w", err)
	}
	evaluation := Evaluate(classes, testY, predicted)

	result := &TrainingResult{
		Artifact: &Artifact{
			FeatureNames: FeatureNames(),
			Classes:      classes,
			Pipeline:     pipeline,
		},
		Evaluation: evaluation,
		TrainRows:  len(trainX),
		TestRows:   len(testX),
		Duration:   time.Since(start),
	}
	logger.Info("training finished",
		zap.Float64("accuracy", evaluation.Accuracy),
		zap.Float64("macro_precision", evaluation.MacroPrecision),
		zap.Float64("macro_recall", evaluation.MacroRecall),
		zap.Float64("gamma", pipeline.Classifier.Gamma),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}
