package experiment

import (
	"context"
	"fmt"
	"time"

	"winequality/internal/config"
	"winequality/internal/evaluation"
	"winequality/internal/models"
)

// Candidate is a named, untrained model taking part in selection.
type Candidate struct {
	Name  string
	Model models.Model
	// Config rebuilds an unfitted copy of Model; zero when unknown.
	Config models.ModelConfig
}

// DefaultCandidates returns the candidate set in selection order. Every
// candidate uses balanced class weights.
func DefaultCandidates(cfg config.TrainingConfig) ([]Candidate, error) {
	specs := []struct {
		name   string
		config models.ModelConfig
	}{
		{"Logistic Regression", models.ModelConfig{
			Algorithm:    "logistic",
			MaxIter:      cfg.Logistic.MaxIter,
			LearningRate: cfg.Logistic.LearningRate,
			C:            cfg.Logistic.C,
			Tol:          cfg.Logistic.Tol,
		}},
		{"Decision Tree", models.ModelConfig{
			Algorithm: "tree",
			MaxDepth:  cfg.Tree.MaxDepth,
			MinSplit:  cfg.Tree.MinSamplesSplit,
		}},
		{"Random Forest", models.ModelConfig{
			Algorithm:  "forest",
			NTrees:     cfg.Forest.NTrees,
			MaxDepth:   cfg.Forest.MaxDepth,
			MinSplit:   cfg.Forest.MinSamplesSplit,
			MaxWorkers: cfg.Forest.MaxWorkers,
		}},
	}

	candidates := make([]Candidate, 0, len(specs))
	for _, spec := range specs {
		spec.config.ClassWeight = models.ClassWeightBalanced
		spec.config.Seed = cfg.Seed

		model, err := models.CreateModel(spec.config)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", spec.name, err)
		}
		candidates = append(candidates, Candidate{Name: spec.name, Model: model, Config: spec.config})
	}

	return candidates, nil
}

type CandidateResult struct {
	Name               string
	Algorithm          string
	Parameters         string
	ValidationF1       float64
	ValidationAccuracy float64
	TrainingTime       time.Duration
	// Metrics is the full validation report behind ValidationF1.
	Metrics *evaluation.ClassificationMetrics
}

type Selection struct {
	Results []CandidateResult
	// Best is nil when no candidate scored above zero.
	Best      *Candidate
	BestIndex int
	BestF1    float64
}

// Select trains every candidate and keeps the first one whose validation
// weighted F1 is strictly greater than the best seen so far, starting from 0.
// onResult, if non-nil, is called after each candidate is scored.
func Select(
	ctx context.Context,
	candidates []Candidate,
	XTrain [][]float64, yTrain []int,
	XVal [][]float64, yVal []int,
	onResult func(CandidateResult),
) (*Selection, error) {
	sel := &Selection{BestIndex: -1}

	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c := &candidates[i]

		start := time.Now()
		if err := c.Model.Fit(XTrain, yTrain); err != nil {
			return nil, fmt.Errorf("train %s: %w", c.Name, err)
		}

		predictions := c.Model.Predict(XVal)
		metrics := evaluation.Score(yVal, predictions)
		if metrics == nil {
			return nil, fmt.Errorf("score %s: empty validation split", c.Name)
		}

		result := CandidateResult{
			Name:               c.Name,
			Algorithm:          c.Model.GetType(),
			Parameters:         fmt.Sprintf("%v", c.Model.GetParams()),
			ValidationF1:       metrics.WeightedF1,
			ValidationAccuracy: metrics.Accuracy,
			TrainingTime:       time.Since(start),
			Metrics:            metrics,
		}
		sel.Results = append(sel.Results, result)

		if onResult != nil {
			onResult(result)
		}

		if result.ValidationF1 > sel.BestF1 {
			sel.BestF1 = result.ValidationF1
			sel.Best = c
			sel.BestIndex = i
		}
	}

	return sel, nil
}
