package ml_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edupredict/ml"
	"edupredict/ml/mltest"
)

func trainedArtifact(t *testing.T) *ml.Artifact {
	t.Helper()
	features, targets := mltest.Students(100, 21, "Dropout", "Graduate")
	result, err := ml.Train(features, targets, ml.DefaultTrainingConfig(), nil)
	require.NoError(t, err)
	return result.Artifact
}

func TestArtifactSaveLoad(t *testing.T) {
	art := trainedArtifact(t)
	path := filepath.Join(t.TempDir(), "models", "svm_model.json")
	require.NoError(t, art.Save(path))

	loaded, err := ml.LoadArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, art.Classes, loaded.Classes)
	assert.Equal(t, ml.FeatureNames(), loaded.FeatureNames)

	x := [][]float64{mltest.HighAchiever().Vector(), mltest.AtRisk().Vector()}
	want, err := art.Pipeline.PredictProba(x)
	require.NoError(t, err)
	got, err := loaded.Pipeline.PredictProba(x)
	require.NoError(t, err)
	for i := range want {
		assert.InDeltaSlice(t, want[i], got[i], 1e-12)
	}
}

func TestArtifactSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svm_model.json")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))
	require.NoError(t, trainedArtifact(t).Save(path))

	_, err := ml.LoadArtifact(path)
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files left behind")
}

func TestLoadArtifactRejectsSchemaMismatch(t *testing.T) {
	art := trainedArtifact(t)
	payload, err := art.Marshal()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(payload, &raw))
	names := raw["feature_names"].([]any)
	names[0], names[1] = names[1], names[0]
	tampered, err := json.Marshal(raw)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "svm_model.json")
	require.NoError(t, os.WriteFile(path, tampered, 0o644))
	_, err = ml.LoadArtifact(path)
	assert.ErrorIs(t, err, ml.ErrDimensionMismatch)
}

func TestLoadArtifactErrors(t *testing.T) {
	_, err := ml.LoadArtifact(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = ml.LoadArtifact(path)
	assert.Error(t, err)
}

func writeTampered(t *testing.T, art *ml.Artifact, edit func(classifier, scaler map[string]any)) string {
	t.Helper()
	payload, err := art.Marshal()
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(payload, &raw))
	pipeline := raw["pipeline"].(map[string]any)
	edit(pipeline["classifier"].(map[string]any), pipeline["scaler"].(map[string]any))
	tampered, err := json.Marshal(raw)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "svm_model.json")
	require.NoError(t, os.WriteFile(path, tampered, 0o644))
	return path
}

func TestLoadArtifactRejectsInconsistentClassifier(t *testing.T) {
	art := mltest.Artifact(t, false)

	tests := map[string]func(classifier, scaler map[string]any){
		"no classifier classes": func(c, _ map[string]any) {
			c["classes"] = []any{}
			c["num_classes"] = 0
		},
		"unknown positive class": func(c, _ map[string]any) {
			c["machines"].([]any)[0].(map[string]any)["positive"] = 7
		},
		"missing machine": func(c, _ map[string]any) {
			c["machines"] = c["machines"].([]any)[1:]
		},
		"duplicate machine": func(c, _ map[string]any) {
			machines := c["machines"].([]any)
			machines[1] = machines[0]
		},
		"unsorted classes": func(c, _ map[string]any) {
			c["classes"] = []any{2, 1, 0}
		},
		"class code beyond labels": func(c, _ map[string]any) {
			c["num_classes"] = 9
			c["classes"] = []any{0, 1, 8}
		},
		"zero std": func(_, s map[string]any) {
			s["std"].([]any)[0] = 0
		},
		"negative std": func(_, s map[string]any) {
			s["std"].([]any)[3] = -1.5
		},
	}
	for name, edit := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ml.LoadArtifact(writeTampered(t, art, edit))
			assert.Error(t, err)
		})
	}
}

func TestLoadArtifactAcceptsUntamperedClassifier(t *testing.T) {
	art := mltest.Artifact(t, false)
	loaded, err := ml.LoadArtifact(writeTampered(t, art, func(_, _ map[string]any) {}))
	require.NoError(t, err)

	labels, err := loaded.Pipeline.Predict([][]float64{mltest.AtRisk().Vector()})
	require.NoError(t, err)
	assert.Len(t, labels, 1)
}
