package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "fixed acidity,volatile acidity,citric acid,residual sugar,chlorides,free sulfur dioxide,total sulfur dioxide,density,pH,sulphates,alcohol,quality,Id"

func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "WineQT.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func TestLoadDataDropsIDColumn(t *testing.T) {
	path := writeCSV(t,
		header,
		"7.4,0.7,0.0,1.9,0.076,11.0,34.0,0.9978,3.51,0.56,9.4,5,0",
		"7.8,0.88,0.0,2.6,0.098,25.0,67.0,0.9968,3.2,0.68,9.8,3,1",
		"11.2,0.28,0.56,1.9,0.075,17.0,60.0,0.998,3.16,0.58,9.8,8,3",
	)

	ds, err := NewCSVReader(path).LoadData()
	require.NoError(t, err)

	assert.Equal(t, FeatureColumns, ds.Features)
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, []int{5, 3, 8}, ds.Y)
	assert.True(t, ds.X[0][7].Equal(decimal.RequireFromString("0.9978")))
	assert.True(t, ds.X[2][0].Equal(decimal.RequireFromString("11.2")))
	assert.Equal(t, path, ds.SourceFile)
}

func TestLoadWineDatasetNormalizesLabels(t *testing.T) {
	path := writeCSV(t,
		header,
		"7.4,0.7,0.0,1.9,0.076,11.0,34.0,0.9978,3.51,0.56,9.4,4,0",
		"7.8,0.88,0.0,2.6,0.098,25.0,67.0,0.9968,3.2,0.68,9.8,6,1",
		"11.2,0.28,0.56,1.9,0.075,17.0,60.0,0.998,3.16,0.58,9.8,9,3",
	)

	ds, err := LoadWineDataset(path)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6, 7}, ds.Y)
}

func TestLoadDataErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewCSVReader(filepath.Join(t.TempDir(), "nope.csv")).LoadData()
		assert.Error(t, err)
	})

	t.Run("non numeric feature", func(t *testing.T) {
		path := writeCSV(t, header, "7.4,abc,0.0,1.9,0.076,11.0,34.0,0.9978,3.51,0.56,9.4,5,0")
		_, err := NewCSVReader(path).LoadData()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "volatile acidity")
	})

	t.Run("missing label column", func(t *testing.T) {
		path := writeCSV(t, "a,b", "1,2")
		_, err := NewCSVReader(path).LoadData()
		assert.Error(t, err)
	})

	t.Run("wrong schema", func(t *testing.T) {
		path := writeCSV(t, "a,b,quality", "1,2,5", "3,4,6")
		_, err := LoadWineDataset(path)
		assert.Error(t, err)
	})

	t.Run("single quality grade", func(t *testing.T) {
		path := writeCSV(t,
			header,
			"7.4,0.7,0.0,1.9,0.076,11.0,34.0,0.9978,3.51,0.56,9.4,6,0",
			"7.8,0.88,0.0,2.6,0.098,25.0,67.0,0.9968,3.2,0.68,9.8,6,1",
		)
		_, err := LoadRawWineDataset(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 2 classes")
	})
}

func TestSubsetAndDistribution(t *testing.T) {
	ds := &Dataset{
		X: [][]decimal.Decimal{
			{decimal.NewFromInt(1)}, {decimal.NewFromInt(2)}, {decimal.NewFromInt(3)},
		},
		Y: []int{7, 5, 7},
	}

	X, y := ds.Subset([]int{2, 0})
	assert.Equal(t, []int{7, 7}, y)
	assert.True(t, X[0][0].Equal(decimal.NewFromInt(3)))

	assert.Equal(t, []ClassCount{{Class: 5, Count: 1}, {Class: 7, Count: 2}}, ClassDistribution(ds.Y))

	ranges := FeatureRanges(ds.X)
	require.Len(t, ranges, 1)
	assert.True(t, ranges[0].Min.Equal(decimal.NewFromInt(1)))
	assert.True(t, ranges[0].Max.Equal(decimal.NewFromInt(3)))
	assert.True(t, ranges[0].Mean.Equal(decimal.NewFromInt(2)))
}

func TestValidator(t *testing.T) {
	dv := NewDataValidator()
	assert.Error(t, dv.ValidateDataset(nil, nil))
	assert.Error(t, dv.ValidateDataset([][]decimal.Decimal{{decimal.Zero}}, []int{1, 2}))
	assert.Error(t, dv.ValidateDataset([][]decimal.Decimal{{decimal.Zero}, {}}, []int{1, 2}))
	assert.NoError(t, dv.ValidateDataset([][]decimal.Decimal{{decimal.Zero}}, []int{1}))

	assert.Error(t, dv.ValidateLabels([]int{5, 5}))
	assert.NoError(t, dv.ValidateLabels([]int{5, 6}))
}
