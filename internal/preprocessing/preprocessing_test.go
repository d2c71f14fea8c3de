package preprocessing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decRows(rows [][]float64) [][]decimal.Decimal {
	out := make([][]decimal.Decimal, len(rows))
	for i, row := range rows {
		out[i] = make([]decimal.Decimal, len(row))
		for j, v := range row {
			out[i][j] = decimal.NewFromFloat(v)
		}
	}
	return out
}

func TestNormalizeQuality(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{3, 5}, {4, 5}, {5, 5}, {6, 6}, {7, 7}, {8, 7}, {9, 7},
	}

	for _, tt := range tests {
		got := NormalizeQuality(tt.input)
		assert.Equal(t, tt.expected, got, "NormalizeQuality(%d)", tt.input)
		assert.Equal(t, got, NormalizeQuality(got), "not idempotent for %d", tt.input)
		assert.Contains(t, []int{5, 6, 7}, got)
	}

	assert.Equal(t, []int{5, 5, 6, 7, 7}, NormalizeQualities([]int{3, 5, 6, 8, 9}))
}

func TestScalerMeanMapsToZero(t *testing.T) {
	X := decRows([][]float64{
		{7.4, 0.70, 9.4},
		{7.8, 0.88, 9.8},
		{11.2, 0.28, 9.8},
		{6.3, 0.30, 11.0},
	})

	s := NewScaler()
	require.NoError(t, s.Fit(X))
	require.Equal(t, 3, s.NumFeatures())

	mean := make([]decimal.Decimal, 3)
	copy(mean, s.FeatureMean)

	scaled, err := s.Transform([][]decimal.Decimal{mean})
	require.NoError(t, err)
	for j, v := range scaled[0] {
		assert.InDelta(t, 0, v, 1e-9, "feature %d", j)
	}

	all, err := s.Transform(X)
	require.NoError(t, err)
	for j := 0; j < 3; j++ {
		sum, sumSq := 0.0, 0.0
		for i := range all {
			sum += all[i][j]
			sumSq += all[i][j] * all[i][j]
		}
		assert.InDelta(t, 0, sum/4, 1e-9)
		assert.InDelta(t, 1, sumSq/4, 1e-6)
	}
}

func TestScalerConstantFeature(t *testing.T) {
	s := NewScaler()
	scaled, err := s.FitTransform(decRows([][]float64{{1, 5}, {2, 5}, {3, 5}}))
	require.NoError(t, err)
	assert.True(t, s.FeatureStd[1].Equal(decimal.NewFromInt(1)))
	for _, row := range scaled {
		assert.Equal(t, 0.0, row[1])
	}
}

func TestScalerErrors(t *testing.T) {
	s := NewScaler()
	_, err := s.Transform(decRows([][]float64{{1}}))
	assert.ErrorIs(t, err, ErrNotFitted)

	assert.Error(t, s.Fit(nil))

	require.NoError(t, s.Fit(decRows([][]float64{{1, 2}, {3, 4}})))
	_, err = s.TransformRow([]float64{1, 2, 3})
	assert.Error(t, err)

	row, err := s.TransformRow([]float64{2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 0, row[0], 1e-12)
	assert.InDelta(t, 0, row[1], 1e-12)
}

func TestScalerFitIsReproducible(t *testing.T) {
	X := decRows([][]float64{{0.1, 3.3}, {0.7, 1.1}, {0.2, 9.9}, {0.5, 2.2}})

	a, b := NewScaler(), NewScaler()
	require.NoError(t, a.Fit(X))
	require.NoError(t, b.Fit(X))

	for j := range a.FeatureMean {
		assert.True(t, a.FeatureMean[j].Equal(b.FeatureMean[j]))
		assert.True(t, a.FeatureStd[j].Equal(b.FeatureStd[j]))
	}
}

func imbalanced() ([][]decimal.Decimal, []int) {
	var rows [][]float64
	var y []int
	for i := 0; i < 12; i++ {
		rows = append(rows, []float64{float64(i), float64(i) * 0.5})
		y = append(y, 6)
	}
	for i := 0; i < 4; i++ {
		rows = append(rows, []float64{20 + float64(i), 1})
		y = append(y, 5)
	}
	for i := 0; i < 3; i++ {
		rows = append(rows, []float64{-10 - float64(i), -1})
		y = append(y, 7)
	}
	return decRows(rows), y
}

func TestSafeNeighbors(t *testing.T) {
	_, y := imbalanced()
	assert.Equal(t, 2, SafeNeighbors(y, 5))
	assert.Equal(t, 1, SafeNeighbors(y, 1))
	assert.Equal(t, 0, SafeNeighbors([]int{5, 6, 6}, 5))
	assert.Equal(t, 0, SafeNeighbors(nil, 5))
}

func TestSMOTEBalancesClasses(t *testing.T) {
	X, y := imbalanced()

	sm := NewSMOTE(SafeNeighbors(y, 5), 42)
	XRes, yRes, err := sm.FitResample(X, y)
	require.NoError(t, err)
	require.Len(t, XRes, len(yRes))

	counts := ClassCounts(yRes)
	assert.Equal(t, map[int]int{5: 12, 6: 12, 7: 12}, counts)

	// originals come first and are untouched
	for i := range X {
		assert.Equal(t, y[i], yRes[i])
		for j := range X[i] {
			assert.True(t, X[i][j].Equal(XRes[i][j]))
		}
	}

	// synthetic class-5 rows stay inside the class-5 bounding box
	for i := len(X); i < len(XRes); i++ {
		if yRes[i] != 5 {
			continue
		}
		v, _ := XRes[i][0].Float64()
		assert.GreaterOrEqual(t, v, 20.0)
		assert.LessOrEqual(t, v, 23.0)
		assert.True(t, XRes[i][1].Equal(decimal.NewFromInt(1)))
	}
}

func TestSMOTEIsDeterministic(t *testing.T) {
	X, y := imbalanced()

	XA, yA, err := NewSMOTE(2, 7).FitResample(X, y)
	require.NoError(t, err)
	XB, yB, err := NewSMOTE(2, 7).FitResample(X, y)
	require.NoError(t, err)

	require.Equal(t, yA, yB)
	for i := range XA {
		for j := range XA[i] {
			assert.True(t, XA[i][j].Equal(XB[i][j]))
		}
	}
}

func TestSMOTEFailsOnTinyClasses(t *testing.T) {
	X := decRows([][]float64{{1}, {2}, {3}, {4}})
	y := []int{5, 6, 6, 6}

	_, _, err := NewSMOTE(SafeNeighbors(y, 5), 1).FitResample(X, y)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooFewSamples))

	_, _, err = NewSMOTE(3, 1).FitResample(X, y)
	assert.ErrorIs(t, err, ErrTooFewSamples)
}
