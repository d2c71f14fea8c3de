package preprocessing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var ErrNotFitted = errors.New("scaler must be fitted before transform")

// Scaler standardizes features to zero mean and unit variance. Parameters are
// kept as decimals so refitting on the same rows reproduces them exactly.
type Scaler struct {
	IsFitted    bool
	FeatureMean []decimal.Decimal
	FeatureStd  []decimal.Decimal
}

func NewScaler() *Scaler {
	return &Scaler{}
}

func (s *Scaler) NumFeatures() int {
	return len(s.FeatureMean)
}

func (s *Scaler) Fit(X [][]decimal.Decimal) error {
	if len(X) == 0 {
		return fmt.Errorf("empty dataset")
	}

	nFeatures := len(X[0])
	nSamples := decimal.NewFromInt(int64(len(X)))
	s.FeatureMean = make([]decimal.Decimal, nFeatures)
	s.FeatureStd = make([]decimal.Decimal, nFeatures)

	for j := 0; j < nFeatures; j++ {
		sum := decimal.Zero
		for i := range X {
			if len(X[i]) != nFeatures {
				return fmt.Errorf("row %d has %d features, expected %d", i, len(X[i]), nFeatures)
			}
			sum = sum.Add(X[i][j])
		}
		s.FeatureMean[j] = sum.Div(nSamples)
	}

	for j := 0; j < nFeatures; j++ {
		variance := decimal.Zero
		for i := range X {
			diff := X[i][j].Sub(s.FeatureMean[j])
			variance = variance.Add(diff.Mul(diff))
		}
		variance = variance.Div(nSamples)

		varFloat, _ := variance.Float64()
		s.FeatureStd[j] = decimal.NewFromFloat(math.Sqrt(varFloat))

		if s.FeatureStd[j].IsZero() {
			s.FeatureStd[j] = decimal.NewFromInt(1)
		}
	}

	s.IsFitted = true
	return nil
}

func (s *Scaler) Transform(X [][]decimal.Decimal) ([][]float64, error) {
	if !s.IsFitted {
		return nil, ErrNotFitted
	}

	result := make([][]float64, len(X))
	for i := range X {
		if len(X[i]) != len(s.FeatureMean) {
			return nil, fmt.Errorf("row %d has %d features, scaler was fitted on %d", i, len(X[i]), len(s.FeatureMean))
		}
		result[i] = make([]float64, len(X[i]))
		for j := range X[i] {
			result[i][j] = s.transformStandard(X[i][j], j)
		}
	}

	return result, nil
}

// TransformRow scales a single raw feature vector, as received by the prediction API.
func (s *Scaler) TransformRow(row []float64) ([]float64, error) {
	sample := make([]decimal.Decimal, len(row))
	for j, v := range row {
		sample[j] = decimal.NewFromFloat(v)
	}

	scaled, err := s.Transform([][]decimal.Decimal{sample})
	if err != nil {
		return nil, err
	}
	return scaled[0], nil
}

func (s *Scaler) FitTransform(X [][]decimal.Decimal) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

func (s *Scaler) transformStandard(value decimal.Decimal, featureIndex int) float64 {
	f, _ := value.Sub(s.FeatureMean[featureIndex]).Div(s.FeatureStd[featureIndex]).Float64()
	return f
}
