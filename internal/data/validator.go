package data

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

type DataValidator struct{}

func NewDataValidator() *DataValidator {
	return &DataValidator{}
}

func (dv *DataValidator) ValidateDataset(X [][]decimal.Decimal, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("dataset is empty")
	}

	if len(X) != len(y) {
		return fmt.Errorf("feature matrix and labels have different lengths: %d vs %d", len(X), len(y))
	}

	nFeatures := len(X[0])
	if nFeatures == 0 {
		return fmt.Errorf("features cannot be empty")
	}

	for i, sample := range X {
		if len(sample) != nFeatures {
			return fmt.Errorf("inconsistent feature count at sample %d: expected %d, got %d", i, nFeatures, len(sample))
		}
	}

	return nil
}

// ValidateWineSchema checks the feature columns match the order the models expect.
func (dv *DataValidator) ValidateWineSchema(ds *Dataset) error {
	if len(ds.Features) != NumFeatures {
		return fmt.Errorf("expected %d feature columns, got %d", NumFeatures, len(ds.Features))
	}
	for j, name := range ds.Features {
		if name != FeatureColumns[j] {
			return fmt.Errorf("feature column %d: expected %q, got %q", j, FeatureColumns[j], name)
		}
	}
	return nil
}

func (dv *DataValidator) ValidateLabels(y []int) error {
	if len(y) == 0 {
		return fmt.Errorf("labels are empty")
	}

	classCount := make(map[int]int)
	for _, label := range y {
		classCount[label]++
	}

	if len(classCount) < 2 {
		return fmt.Errorf("dataset must have at least 2 classes, found %d", len(classCount))
	}

	return nil
}

type ClassCount struct {
	Class int
	Count int
}

// ClassDistribution returns label counts sorted by label.
func ClassDistribution(y []int) []ClassCount {
	counts := make(map[int]int)
	for _, label := range y {
		counts[label]++
	}

	dist := make([]ClassCount, 0, len(counts))
	for class, count := range counts {
		dist = append(dist, ClassCount{Class: class, Count: count})
	}
	sort.Slice(dist, func(i, j int) bool { return dist[i].Class < dist[j].Class })
	return dist
}

type FeatureRange struct {
	Min  decimal.Decimal
	Max  decimal.Decimal
	Mean decimal.Decimal
}

func FeatureRanges(X [][]decimal.Decimal) []FeatureRange {
	if len(X) == 0 {
		return nil
	}

	nFeatures := len(X[0])
	ranges := make([]FeatureRange, nFeatures)

	for j := 0; j < nFeatures; j++ {
		values := make([]decimal.Decimal, len(X))
		for i := range X {
			values[i] = X[i][j]
		}

		ranges[j] = FeatureRange{
			Min:  findMin(values),
			Max:  findMax(values),
			Mean: calculateMean(values),
		}
	}

	return ranges
}

func findMin(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	min := values[0]
	for _, v := range values[1:] {
		if v.LessThan(min) {
			min = v
		}
	}
	return min
}

func findMax(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	max := values[0]
	for _, v := range values[1:] {
		if v.GreaterThan(max) {
			max = v
		}
	}
	return max
}

func calculateMean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(values))))
}
