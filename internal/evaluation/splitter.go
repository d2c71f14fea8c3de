package evaluation

import (
	"fmt"
	"math/rand"
	"sort"
)

type TrainTestSplitter struct {
	testSize   float64
	randomSeed int64
	shuffle    bool
}

func NewTrainTestSplitter(testSize float64, randomSeed int64, shuffle bool) *TrainTestSplitter {
	return &TrainTestSplitter{
		testSize:   testSize,
		randomSeed: randomSeed,
		shuffle:    shuffle,
	}
}

// StratifiedIndices splits positions 0..len(y)-1 so every class contributes
// testSize of its rows to the test side (at least one row per class).
func (tts *TrainTestSplitter) StratifiedIndices(y []int) ([]int, []int, error) {
	if len(y) == 0 {
		return nil, nil, fmt.Errorf("cannot split empty dataset")
	}

	if tts.testSize <= 0 || tts.testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be between 0 and 1")
	}

	classIndices := make(map[int][]int)
	for i, label := range y {
		classIndices[label] = append(classIndices[label], i)
	}

	classes := make([]int, 0, len(classIndices))
	for class := range classIndices {
		classes = append(classes, class)
	}
	sort.Ints(classes)

	var trainIndices, testIndices []int

	rng := rand.New(rand.NewSource(tts.randomSeed))
	for _, class := range classes {
		indices := classIndices[class]
		if tts.shuffle {
			rng.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}

		testCount := int(float64(len(indices)) * tts.testSize)
		if testCount == 0 && len(indices) > 0 {
			testCount = 1
		}

		trainCount := len(indices) - testCount

		trainIndices = append(trainIndices, indices[:trainCount]...)
		testIndices = append(testIndices, indices[trainCount:]...)
	}

	if tts.shuffle {
		rng.Shuffle(len(trainIndices), func(i, j int) {
			trainIndices[i], trainIndices[j] = trainIndices[j], trainIndices[i]
		})
		rng.Shuffle(len(testIndices), func(i, j int) {
			testIndices[i], testIndices[j] = testIndices[j], testIndices[i]
		})
	}

	return trainIndices, testIndices, nil
}

// Split holds disjoint row indices into the source dataset.
type Split struct {
	Train      []int
	Validation []int
	Test       []int
}

// ThreeWaySplit first holds out validationSize+testSize of every class, then
// divides the held-out rows between validation and test, both stratified.
func ThreeWaySplit(y []int, validationSize, testSize float64, seed int64) (*Split, error) {
	holdout := validationSize + testSize
	if validationSize <= 0 || testSize <= 0 || holdout >= 1 {
		return nil, fmt.Errorf("invalid split sizes: validation=%.2f test=%.2f", validationSize, testSize)
	}

	train, temp, err := NewTrainTestSplitter(holdout, seed, true).StratifiedIndices(y)
	if err != nil {
		return nil, err
	}

	yTemp := make([]int, len(temp))
	for i, idx := range temp {
		yTemp[i] = y[idx]
	}

	valPos, testPos, err := NewTrainTestSplitter(testSize/holdout, seed, true).StratifiedIndices(yTemp)
	if err != nil {
		return nil, err
	}

	split := &Split{
		Train:      train,
		Validation: make([]int, len(valPos)),
		Test:       make([]int, len(testPos)),
	}
	for i, p := range valPos {
		split.Validation[i] = temp[p]
	}
	for i, p := range testPos {
		split.Test[i] = temp[p]
	}

	return split, nil
}
