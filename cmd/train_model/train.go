package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"edupredict/config"
	"edupredict/dataset"
	"edupredict/db"
	"edupredict/ml"

	"go.uber.org/zap"
)

const modelName = "svm_rbf"

type trainer struct {
	cfg    *config.Config
	store  *db.Store
	logger *zap.Logger
}

// trainOnce runs read, train, save and record in that order and stops at the
// first failure.
func (t *trainer) trainOnce(ctx context.Context) (*ml.TrainingResult, error) {
	t.logger.Info("reading dataset", zap.String("path", t.cfg.Dataset.Path))
	table, err := dataset.ReadFile(t.cfg.Dataset.Path, t.cfg.DatasetOptions())
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	t.logger.Info("dataset loaded", zap.Int("rows", table.Len()))

	result, err := ml.Train(table.Features, table.Targets, t.cfg.TrainingConfig(), t.logger)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	if err := result.Artifact.Save(t.cfg.Model.Path); err != nil {
		return nil, fmt.Errorf("save artifact: %w", err)
	}
	t.logger.Info("artifact saved", zap.String("path", t.cfg.Model.Path))

	if t.store != nil {
		err := t.store.SaveTrainingLog(ctx, db.TrainingLog{
			ModelName:  modelName,
			ModelPath:  t.cfg.Model.Path,
			Accuracy:   result.Evaluation.Accuracy,
			Precision:  result.Evaluation.MacroPrecision,
			Recall:     result.Evaluation.MacroRecall,
			F1:         result.Evaluation.MacroF1,
			Classes:    result.Artifact.Classes,
			DataPoints: table.Len(),
		})
		if err != nil {
			return result, fmt.Errorf("record training log: %w", err)
		}
	}
	return result, nil
}

func printSummary(w io.Writer, result *ml.TrainingResult, modelPath string) {
	ev := result.Evaluation
	fmt.Fprintf(w, "accuracy=%.4f macro_precision=%.4f macro_recall=%.4f macro_f1=%.4f (train=%d test=%d)\n",
		ev.Accuracy, ev.MacroPrecision, ev.MacroRecall, ev.MacroF1, result.TrainRows, result.TestRows)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "class\tprecision\trecall\tf1\tsupport")
	for _, c := range ev.PerClass {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\t%d\n", c.Class, c.Precision, c.Recall, c.F1, c.Support)
	}
	tw.Flush()
	fmt.Fprintf(w, "model saved to %s\n", modelPath)
}
