package models

import (
	"sort"
)

// Model is a classifier over scaled feature vectors.
type Model interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) []int
	GetType() string
	GetName() string
	GetParams() map[string]any
	GetClasses() []int
}

type BaseModel struct {
	Name    string
	Params  map[string]any
	Classes []int
}

func (bm *BaseModel) GetType() string {
	return bm.Name
}

func (bm *BaseModel) GetName() string {
	return bm.Name
}

func (bm *BaseModel) GetParams() map[string]any {
	return bm.Params
}

func (bm *BaseModel) GetClasses() []int {
	return bm.Classes
}

// ExtractClasses returns the distinct labels in ascending order.
func ExtractClasses(y []int) []int {
	classMap := make(map[int]bool)
	for _, label := range y {
		classMap[label] = true
	}

	classes := make([]int, 0, len(classMap))
	for class := range classMap {
		classes = append(classes, class)
	}
	sort.Ints(classes)

	return classes
}

// BalancedSampleWeights weights every sample by n / (nClasses * count(class)),
// so each class contributes the same total weight.
func BalancedSampleWeights(y []int) []float64 {
	counts := make(map[int]int)
	for _, label := range y {
		counts[label]++
	}

	n := float64(len(y))
	k := float64(len(counts))

	weights := make([]float64, len(y))
	for i, label := range y {
		weights[i] = n / (k * float64(counts[label]))
	}
	return weights
}

func uniformWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}
	return weights
}

func validateFitInput(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errEmptyTrainingSet
	}
	if len(X) != len(y) {
		return errLengthMismatch
	}
	if len(X[0]) == 0 {
		return errNoFeatures
	}
	return nil
}
