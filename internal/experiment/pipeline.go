package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"winequality/internal/config"
	"winequality/internal/data"
	"winequality/internal/evaluation"
	"winequality/internal/models"
	"winequality/internal/preprocessing"
)

// Pipeline turns a normalized dataset into a fitted scaler and the best
// candidate model.
type Pipeline struct {
	Training config.TrainingConfig
	Logger   *slog.Logger

	// Candidates builds the models to compare. Defaults to DefaultCandidates.
	Candidates func(config.TrainingConfig) ([]Candidate, error)
	// OnResample runs once the training split is resampled, before any
	// candidate is trained.
	OnResample  func(*Report)
	OnCandidate func(CandidateResult)
}

type Report struct {
	Split *evaluation.Split

	TrainBefore []data.ClassCount
	TrainAfter  []data.ClassCount

	SMOTEApplied   bool
	SMOTENeighbors int
	SMOTEError     error

	Scaler      *preprocessing.Scaler
	Selection   *Selection
	TestMetrics *evaluation.ClassificationMetrics
	// CrossValidation scores the winner's configuration on the training split.
	CrossValidation *evaluation.CVResult
	Duration        time.Duration
}

func NewPipeline(training config.TrainingConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Training:   training,
		Logger:     logger,
		Candidates: DefaultCandidates,
	}
}

func (p *Pipeline) Run(ctx context.Context, ds *data.Dataset) (*Report, error) {
	start := time.Now()
	cfg := p.Training
	report := &Report{}

	split, err := evaluation.ThreeWaySplit(ds.Y, cfg.ValidationSize, cfg.TestSize, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("split dataset: %w", err)
	}
	report.Split = split

	XTrain, yTrain := ds.Subset(split.Train)
	XVal, yVal := ds.Subset(split.Validation)
	XTest, yTest := ds.Subset(split.Test)

	p.Logger.Info("dataset split",
		"train", len(split.Train),
		"validation", len(split.Validation),
		"test", len(split.Test),
		"seed", cfg.Seed,
	)

	report.TrainBefore = data.ClassDistribution(yTrain)
	XTrain, yTrain = p.resample(XTrain, yTrain, report)
	report.TrainAfter = data.ClassDistribution(yTrain)
	if p.OnResample != nil {
		p.OnResample(report)
	}

	scaler := preprocessing.NewScaler()
	XTrainScaled, err := scaler.FitTransform(XTrain)
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	XValScaled, err := scaler.Transform(XVal)
	if err != nil {
		return nil, fmt.Errorf("scale validation split: %w", err)
	}
	XTestScaled, err := scaler.Transform(XTest)
	if err != nil {
		return nil, fmt.Errorf("scale test split: %w", err)
	}
	report.Scaler = scaler

	build := p.Candidates
	if build == nil {
		build = DefaultCandidates
	}
	candidates, err := build(cfg)
	if err != nil {
		return nil, err
	}

	selection, err := Select(ctx, candidates, XTrainScaled, yTrain, XValScaled, yVal, func(r CandidateResult) {
		p.Logger.Info("candidate scored",
			"name", r.Name,
			"weighted_f1", r.ValidationF1,
			"accuracy", r.ValidationAccuracy,
			"duration", r.TrainingTime,
		)
		if p.OnCandidate != nil {
			p.OnCandidate(r)
		}
	})
	if err != nil {
		return nil, err
	}
	report.Selection = selection

	if selection.Best != nil {
		predictions := selection.Best.Model.Predict(XTestScaled)
		report.TestMetrics = evaluation.Score(yTest, predictions)
		p.Logger.Info("best model selected",
			"name", selection.Best.Name,
			"validation_f1", selection.BestF1,
			"test_f1", report.TestMetrics.WeightedF1,
			"test_accuracy", report.TestMetrics.Accuracy,
		)
		report.CrossValidation = p.crossValidate(selection.Best, XTrainScaled, yTrain)
	} else {
		p.Logger.Warn("no candidate scored above zero, nothing to persist")
	}

	report.Duration = time.Since(start)
	return report, nil
}

// resample applies SMOTE to the training split. A failure is recorded in the
// report and the original split is returned unchanged.
func (p *Pipeline) resample(X [][]decimal.Decimal, y []int, report *Report) ([][]decimal.Decimal, []int) {
	k := preprocessing.SafeNeighbors(y, p.Training.SMOTENeighbors)
	report.SMOTENeighbors = k

	smote := preprocessing.NewSMOTE(k, p.Training.Seed)
	XRes, yRes, err := smote.FitResample(X, y)
	if err != nil {
		report.SMOTEError = err
		p.Logger.Warn("smote failed, training on the original split", "k_neighbors", k, "error", err)
		return X, y
	}

	report.SMOTEApplied = true
	p.Logger.Info("smote applied", "k_neighbors", k, "before", len(y), "after", len(yRes))
	return XRes, yRes
}

func (p *Pipeline) crossValidate(best *Candidate, X [][]float64, y []int) *evaluation.CVResult {
	folds := p.Training.CVFolds
	if folds < 2 || best.Config.Algorithm == "" {
		return nil
	}

	cv := evaluation.NewCrossValidator(folds, p.Training.Seed)
	result, err := cv.CrossValidate(X, y, func() (models.Model, error) {
		return models.CreateModel(best.Config)
	})
	if err != nil {
		p.Logger.Warn("cross-validation failed", "name", best.Name, "error", err)
		return nil
	}

	p.Logger.Info("cross-validation", "name", best.Name, "folds", folds, "mean_f1", result.Mean, "std_f1", result.Std)
	return result
}
