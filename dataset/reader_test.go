package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"edupredict/ml"
)

const semicolonCSV = "Marital status;Tuition fees up to date;Scholarship holder;Curricular units 1st sem (approved);Curricular units 1st sem (grade);Curricular units 2nd sem (approved);Curricular units 2nd sem (grade);Age at enrollment;Target\n" +
	"1;1;0;6;14.0;6;13.666666666666666;20;Graduate\n" +
	"1;0;0;0;0;0;0;45;Dropout\n" +
	"2;1;1;5;12.4;5;12;19;Enrolled\n"

func TestReadSemicolonProjectsColumns(t *testing.T) {
	table, err := Read(strings.NewReader(semicolonCSV), Options{})
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())

	assert.Equal(t, []string{"Graduate", "Dropout", "Enrolled"}, table.Targets)
	assert.Equal(t, []float64{1, 0, 6, 14, 6, 13.666666666666666, 20}, table.Features[0])
	assert.Len(t, table.Features[2], len(ml.FeatureNames()))
}

func TestReadCommaReorderedHeader(t *testing.T) {
	csv := "Target,Age at enrollment,Curricular units 2nd sem (grade),Curricular units 2nd sem (approved),Curricular units 1st sem (grade),Curricular units 1st sem (approved),Scholarship holder,Tuition fees up to date\n" +
		"Graduate,19,15,20,14.5,18,1,1\n"
	table, err := Read(strings.NewReader(csv), Options{})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 18, 14.5, 20, 15, 19}, table.Features[0])
}

func TestReadMissingColumns(t *testing.T) {
	csv := "Tuition fees up to date,Scholarship holder,Outcome\n1,0,Graduate\n"
	_, err := Read(strings.NewReader(csv), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumns))

	var mce *MissingColumnsError
	require.True(t, errors.As(err, &mce))
	assert.Contains(t, mce.Columns, "Age at enrollment")
	assert.Contains(t, mce.Columns, "Target")
	assert.NotContains(t, mce.Columns, "Scholarship holder")
}

func TestReadCustomTargetColumn(t *testing.T) {
	csv := strings.Replace(semicolonCSV, ";Target\n", ";Status\n", 1)
	_, err := Read(strings.NewReader(csv), Options{})
	assert.ErrorIs(t, err, ErrMissingColumns)

	table, err := Read(strings.NewReader(csv), Options{TargetColumn: "Status"})
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}

func TestReadNonNumeric(t *testing.T) {
	csv := strings.Replace(semicolonCSV, "1;1;0;6;14.0", "1;yes;0;6;14.0", 1)
	_, err := Read(strings.NewReader(csv), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), ml.ColTuitionFees)
}

func TestReadEmpty(t *testing.T) {
	_, err := Read(strings.NewReader(""), Options{})
	assert.Error(t, err)

	header := strings.SplitN(semicolonCSV, "\n", 2)[0] + "\n"
	_, err = Read(strings.NewReader(header), Options{})
	assert.Error(t, err)
}

func TestReadBOMAndLatin1(t *testing.T) {
	withBOM := "\ufeff" + semicolonCSV
	table, err := Read(strings.NewReader(withBOM), Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	latin := strings.Replace(semicolonCSV, "Enrolled", "Matriculé", 1)
	encoded, err := charmap.ISO8859_1.NewEncoder().String(latin)
	require.NoError(t, err)
	table, err = Read(strings.NewReader(encoded), Options{Encoding: "latin1"})
	require.NoError(t, err)
	assert.Equal(t, "Matriculé", table.Targets[2])

	_, err = Read(strings.NewReader(semicolonCSV), Options{Encoding: "klingon"})
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.csv")
	require.NoError(t, os.WriteFile(path, []byte(semicolonCSV), 0o644))
	table, err := ReadFile(path, Options{Delimiter: ';'})
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	_, err = ReadFile(filepath.Join(t.TempDir(), "absent.csv"), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
