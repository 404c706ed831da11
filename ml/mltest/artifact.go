package mltest

import (
	"path/filepath"
	"testing"

	"edupredict/ml"
)

// Artifact trains a small model over the given classes. It fails tb on error.
func Artifact(tb testing.TB, probability bool, classes ...string) *ml.Artifact {
	tb.Helper()
	if len(classes) == 0 {
		classes = []string{"Dropout", "Enrolled", "Graduate"}
	}
	features, targets := Students(40*len(classes), 21, classes...)
	config := ml.DefaultTrainingConfig()
	config.SVC.Probability = probability
	result, err := ml.Train(features, targets, config, nil)
	if err != nil {
		tb.Fatalf("train: %v", err)
	}
	return result.Artifact
}

// SavedArtifact trains like Artifact and writes the result under tb's temp dir.
func SavedArtifact(tb testing.TB, probability bool, classes ...string) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "svm_model.json")
	if err := Artifact(tb, probability, classes...).Save(path); err != nil {
		tb.Fatalf("save artifact: %v", err)
	}
	return path
}
