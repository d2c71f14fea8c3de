package models

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
)

type RandomForest struct {
	BaseModel
	NTrees          int
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int
	ClassWeight     string
	Seed            int64
	Trees           []*DecisionTree
	Parallel        bool
	MaxWorkers      int
}

func NewRandomForest(nTrees, maxDepth, minSamplesSplit int) *RandomForest {
	return &RandomForest{
		NTrees:          nTrees,
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		Parallel:        true,
		MaxWorkers:      4,
		BaseModel: BaseModel{
			Name: "RandomForest",
			Params: map[string]any{
				"n_trees":           nTrees,
				"max_depth":         maxDepth,
				"min_samples_split": minSamplesSplit,
			},
		},
	}
}

func (rf *RandomForest) Fit(X [][]float64, y []int) error {
	if err := validateFitInput(X, y); err != nil {
		return err
	}
	if rf.NTrees <= 0 {
		return fmt.Errorf("forest needs at least one tree, got %d", rf.NTrees)
	}

	rf.Classes = ExtractClasses(y)
	nFeatures := len(X[0])

	rf.MaxFeatures = int(math.Sqrt(float64(nFeatures)))
	if rf.MaxFeatures < 1 {
		rf.MaxFeatures = 1
	}

	weights := uniformWeights(len(y))
	if rf.ClassWeight == ClassWeightBalanced {
		weights = BalancedSampleWeights(y)
	}

	rf.Trees = make([]*DecisionTree, rf.NTrees)

	if rf.Parallel {
		return rf.trainParallel(X, y, weights)
	}

	return rf.trainSequential(X, y, weights)
}

func (rf *RandomForest) trainParallel(X [][]float64, y []int, weights []float64) error {
	var wg sync.WaitGroup
	errors := make([]error, rf.NTrees)

	workers := rf.MaxWorkers
	if workers > rf.NTrees {
		workers = rf.NTrees
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, rf.NTrees)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				tree, err := rf.trainSingleTree(X, y, weights, rf.Seed+int64(i))
				rf.Trees[i] = tree
				errors[i] = err
			}
		}()
	}

	for i := 0; i < rf.NTrees; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	for i, err := range errors {
		if err != nil {
			return fmt.Errorf("tree %d training failed: %w", i, err)
		}
	}

	return nil
}

func (rf *RandomForest) trainSequential(X [][]float64, y []int, weights []float64) error {
	for i := 0; i < rf.NTrees; i++ {
		tree, err := rf.trainSingleTree(X, y, weights, rf.Seed+int64(i))
		if err != nil {
			return fmt.Errorf("tree %d training failed: %w", i, err)
		}
		rf.Trees[i] = tree
	}
	return nil
}

// trainSingleTree fits one tree on a bootstrap sample. Each tree owns its rng,
// so the forest is identical whether trained in parallel or not.
func (rf *RandomForest) trainSingleTree(X [][]float64, y []int, weights []float64, seed int64) (*DecisionTree, error) {
	r := rand.New(rand.NewSource(seed))

	n := len(X)
	XBoot := make([][]float64, n)
	yBoot := make([]int, n)
	wBoot := make([]float64, n)

	for i := 0; i < n; i++ {
		idx := r.Intn(n)
		XBoot[i] = X[idx]
		yBoot[i] = y[idx]
		wBoot[i] = weights[idx]
	}

	tree := NewDecisionTree(rf.MaxDepth, rf.MinSamplesSplit)
	tree.MaxFeatures = rf.MaxFeatures
	tree.Seed = r.Int63()
	err := tree.FitWeighted(XBoot, yBoot, wBoot)

	return tree, err
}

// Predict takes the majority vote of the trees; ties go to the lower label.
func (rf *RandomForest) Predict(X [][]float64) []int {
	predictions := make([]int, len(X))

	classIdx := make(map[int]int, len(rf.Classes))
	for i, class := range rf.Classes {
		classIdx[class] = i
	}

	for i, sample := range X {
		votes := make([]float64, len(rf.Classes))

		for _, tree := range rf.Trees {
			treePrediction := tree.predictSample(sample, tree.Root)
			votes[classIdx[treePrediction]]++
		}

		predictions[i] = rf.Classes[argmax(votes)]
	}

	return predictions
}
