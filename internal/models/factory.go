package models

import (
	"errors"
	"fmt"
)

var (
	errEmptyTrainingSet = errors.New("cannot fit on an empty training set")
	errLengthMismatch   = errors.New("x and y must have the same length")
	errNoFeatures       = errors.New("samples have no features")
)

const ClassWeightBalanced = "balanced"

type ModelConfig struct {
	Algorithm    string
	ClassWeight  string
	MaxDepth     int
	MinSplit     int
	NTrees       int
	MaxWorkers   int
	MaxIter      int
	LearningRate float64
	C            float64
	Tol          float64
	Seed         int64
}

func CreateModel(config ModelConfig) (Model, error) {
	switch config.Algorithm {
	case "logistic":
		if config.MaxIter <= 0 {
			config.MaxIter = 1000
		}
		if config.LearningRate <= 0 {
			config.LearningRate = 0.5
		}
		if config.C <= 0 {
			config.C = 1.0
		}
		lr := NewLogisticRegression(config.MaxIter, config.LearningRate, config.C)
		if config.Tol > 0 {
			lr.Tol = config.Tol
		}
		lr.ClassWeight = config.ClassWeight
		return lr, nil

	case "tree":
		if config.MaxDepth <= 0 {
			config.MaxDepth = 10
		}
		if config.MinSplit <= 0 {
			config.MinSplit = 2
		}
		tree := NewDecisionTree(config.MaxDepth, config.MinSplit)
		tree.ClassWeight = config.ClassWeight
		return tree, nil

	case "forest":
		if config.NTrees <= 0 {
			config.NTrees = 100
		}
		if config.MaxDepth <= 0 {
			config.MaxDepth = 10
		}
		if config.MinSplit <= 0 {
			config.MinSplit = 2
		}
		forest := NewRandomForest(config.NTrees, config.MaxDepth, config.MinSplit)
		forest.ClassWeight = config.ClassWeight
		forest.Seed = config.Seed
		if config.MaxWorkers > 0 {
			forest.MaxWorkers = config.MaxWorkers
		}
		return forest, nil

	default:
		return nil, fmt.Errorf("unknown algorithm: %s", config.Algorithm)
	}
}

func DefaultConfig(algorithm string) ModelConfig {
	config := ModelConfig{Algorithm: algorithm, ClassWeight: ClassWeightBalanced}

	switch algorithm {
	case "logistic":
		config.MaxIter = 1000
		config.LearningRate = 0.5
		config.C = 1.0
	case "tree":
		config.MaxDepth = 10
		config.MinSplit = 2
	case "forest":
		config.NTrees = 100
		config.MaxDepth = 10
		config.MinSplit = 2
	}

	return config
}
