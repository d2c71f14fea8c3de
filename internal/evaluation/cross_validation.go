package evaluation

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"winequality/internal/models"
)

// ModelFactory returns a fresh, unfitted model for every fold.
type ModelFactory func() (models.Model, error)

type CrossValidator struct {
	NFolds     int
	RandomSeed int64
	Parallel   bool
	MaxWorkers int
}

type CVResult struct {
	Scores []float64 // weighted F1 per fold
	Mean   float64
	Std    float64
}

func NewCrossValidator(nFolds int, seed int64) *CrossValidator {
	return &CrossValidator{
		NFolds:     nFolds,
		RandomSeed: seed,
		Parallel:   true,
		MaxWorkers: 4,
	}
}

func (cv *CrossValidator) CrossValidate(X [][]float64, y []int, newModel ModelFactory) (*CVResult, error) {
	if len(X) != len(y) {
		return nil, fmt.Errorf("x and y must have the same length")
	}

	folds, err := cv.StratifiedFolds(y)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, cv.NFolds)
	errors := make([]error, cv.NFolds)

	workers := 1
	if cv.Parallel {
		workers = cv.MaxWorkers
	}
	if workers > cv.NFolds {
		workers = cv.NFolds
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, cv.NFolds)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				scores[i], errors[i] = cv.evaluateFold(X, y, newModel, folds[i])
			}
		}()
	}

	for i := range folds {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	for i, err := range errors {
		if err != nil {
			return nil, fmt.Errorf("fold %d failed: %w", i, err)
		}
	}

	mean, std := calculateStats(scores)
	return &CVResult{Scores: scores, Mean: mean, Std: std}, nil
}

func (cv *CrossValidator) evaluateFold(X [][]float64, y []int, newModel ModelFactory, testIndices []int) (float64, error) {
	testSet := make(map[int]bool, len(testIndices))
	for _, idx := range testIndices {
		testSet[idx] = true
	}

	var XTrain, XTest [][]float64
	var yTrain, yTest []int
	for i := range X {
		if testSet[i] {
			XTest = append(XTest, X[i])
			yTest = append(yTest, y[i])
		} else {
			XTrain = append(XTrain, X[i])
			yTrain = append(yTrain, y[i])
		}
	}

	model, err := newModel()
	if err != nil {
		return 0, err
	}
	if err := model.Fit(XTrain, yTrain); err != nil {
		return 0, err
	}

	return WeightedF1Score(yTest, model.Predict(XTest)), nil
}

// StratifiedFolds deals the shuffled rows of every class round-robin over the
// folds, so each fold keeps the class proportions.
func (cv *CrossValidator) StratifiedFolds(y []int) ([][]int, error) {
	if cv.NFolds < 2 || cv.NFolds > len(y) {
		return nil, fmt.Errorf("invalid number of folds: %d (must be between 2 and %d)", cv.NFolds, len(y))
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

	rng := rand.New(rand.NewSource(cv.RandomSeed))
	folds := make([][]int, cv.NFolds)

	next := 0
	for _, class := range classes {
		indices := classIndices[class]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		for _, idx := range indices {
			folds[next] = append(folds[next], idx)
			next = (next + 1) % cv.NFolds
		}
	}

	return folds, nil
}

func calculateStats(scores []float64) (mean, std float64) {
	if len(scores) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	mean = sum / float64(len(scores))

	if len(scores) > 1 {
		variance := 0.0
		for _, s := range scores {
			diff := s - mean
			variance += diff * diff
		}
		variance /= float64(len(scores) - 1)
		std = math.Sqrt(variance)
	}

	return mean, std
}
