package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPredictionHistoryNewestFirst(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	conf := 0.83

	_, err := store.SavePrediction(ctx, PredictionRecord{
		TuitionFeesUpToDate: 1, Sem1Approved: 6, Sem1Grade: 13.5, Sem2Approved: 6, Sem2Grade: 14,
		AgeAtEnrollment: 19, Label: "Graduate", ClassCode: 2, Confidence: &conf, CreatedAt: base,
	})
	require.NoError(t, err)
	_, err = store.SavePrediction(ctx, PredictionRecord{
		RequestID: "req-2", AgeAtEnrollment: 35, Label: "Dropout", ClassCode: 0, CreatedAt: base.Add(time.Minute),
	})
	require.NoError(t, err)

	records, err := store.RecentPredictions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Dropout", records[0].Label)
	assert.Equal(t, "req-2", records[0].RequestID)
	assert.Nil(t, records[0].Confidence)

	assert.Equal(t, "Graduate", records[1].Label)
	require.NotNil(t, records[1].Confidence)
	assert.InDelta(t, 0.83, *records[1].Confidence, 1e-9)
	assert.Equal(t, 13.5, records[1].Sem1Grade)
}

func TestRecentPredictionsLimit(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := store.SavePrediction(ctx, PredictionRecord{Label: "Enrolled", ClassCode: 1, AgeAtEnrollment: 20})
		require.NoError(t, err)
	}
	records, err := store.RecentPredictions(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestTrainingLogRoundTrip(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	require.NoError(t, store.SaveTrainingLog(ctx, TrainingLog{
		ModelName: "svm_rbf", ModelPath: "models/svm_model.json", Accuracy: 0.76,
		Precision: 0.7, Recall: 0.68, F1: 0.69,
		Classes: []string{"Dropout", "Enrolled", "Graduate"}, DataPoints: 4424,
		TrainedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}))

	logs, err := store.LoadTrainingLog(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "svm_rbf", logs[0].ModelName)
	assert.Equal(t, []string{"Dropout", "Enrolled", "Graduate"}, logs[0].Classes)
	assert.Equal(t, 4424, logs[0].DataPoints)
}

func TestNilStoreReportsClosed(t *testing.T) {
	var store *Store
	_, err := store.RecentPredictions(context.Background(), 1)
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, store.Close())
}
