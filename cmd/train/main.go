package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"winequality/internal/config"
	"winequality/internal/data"
	"winequality/internal/experiment"
	"winequality/internal/observability"
	"winequality/internal/persistence"
	"winequality/internal/registry"
	"winequality/internal/report"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

func main() {
	configFile := flag.String("config", "", "Path to configuration file (default: configs/wine.yaml if present)")
	dataFile := flag.String("data", "", "Path to the wine CSV (overrides config)")
	modelPath := flag.String("model", "", "Output path of the best model (overrides config)")
	scalerPath := flag.String("scaler", "", "Output path of the fitted scaler (overrides config)")
	seed := flag.Int64("seed", 0, "Random seed for split, SMOTE and forest (overrides config)")
	plotPath := flag.String("plot", "", "Write a class distribution chart to this PNG")
	resultsPath := flag.String("results", "", "Export per-candidate scores to this CSV")
	history := flag.Bool("history", false, "Print recent training runs and exit")
	historyLimit := flag.Int("history-limit", 10, "Number of runs printed by -history")

	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.Data.Path = *dataFile
		case "model":
			cfg.Artifacts.ModelPath = *modelPath
		case "scaler":
			cfg.Artifacts.ScalerPath = *scalerPath
		case "seed":
			cfg.Training.Seed = *seed
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *history {
		if err := printHistory(ctx, cfg.Registry.Path, *historyLimit); err != nil {
			log.Fatalf("History failed: %v", err)
		}
		return
	}

	if err := train(ctx, cfg, *plotPath, *resultsPath); err != nil {
		log.Fatalf("Training failed: %v", err)
	}
}

func train(ctx context.Context, cfg *config.Config, plotPath, resultsPath string) error {
	runID := uuid.NewString()
	started := time.Now()

	fmt.Printf("Training run %s\n", cyan(runID))
	fmt.Printf("Loading dataset %s...\n", cfg.Data.Path)

	raw, err := data.LoadRawWineDataset(cfg.Data.Path)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	ds := raw.Normalized()

	fmt.Printf("Loaded %d samples with %d features\n", ds.Len(), len(ds.Features))
	printDistribution("Class distribution (original)", data.ClassDistribution(raw.Y))
	printDistribution("Class distribution (merged)", data.ClassDistribution(ds.Y))

	logger := observability.NewLogger(os.Stderr, cfg.Log)

	pipeline := experiment.NewPipeline(cfg.Training, logger)
	pipeline.OnResample = func(rep *experiment.Report) {
		if rep.SMOTEApplied {
			fmt.Printf("%s SMOTE applied (k=%d)\n", green("✓"), rep.SMOTENeighbors)
		} else {
			fmt.Printf("%s SMOTE skipped, training on the original split: %v\n", yellow("!"), rep.SMOTEError)
		}
		printDistribution("Training split before SMOTE", rep.TrainBefore)
		printDistribution("Training split after SMOTE", rep.TrainAfter)
		fmt.Println("Training candidates...")
	}
	pipeline.OnCandidate = func(r experiment.CandidateResult) {
		fmt.Printf("\n%s (%v)\n", cyan(r.Name), r.TrainingTime.Round(time.Millisecond))
		fmt.Print(r.Metrics.FormatMetrics())
		fmt.Println("Classification report (validation):")
		fmt.Println(r.Metrics.ClassificationReport())
	}

	rep, err := pipeline.Run(ctx, ds)
	if err != nil {
		return err
	}

	run := &registry.Run{
		ID:             runID,
		StartedAt:      started,
		Dataset:        cfg.Data.Path,
		Rows:           ds.Len(),
		TrainRows:      len(rep.Split.Train),
		ValidationRows: len(rep.Split.Validation),
		TestRows:       len(rep.Split.Test),
		SMOTEApplied:   rep.SMOTEApplied,
		SMOTENeighbors: rep.SMOTENeighbors,
	}
	for _, r := range rep.Selection.Results {
		run.Candidates = append(run.Candidates, registry.CandidateScore{
			Name:               r.Name,
			ValidationF1:       r.ValidationF1,
			ValidationAccuracy: r.ValidationAccuracy,
			Duration:           r.TrainingTime,
		})
	}

	if best := rep.Selection.Best; best != nil {
		fmt.Printf("\nBest model: %s (validation weighted F1 %.4f)\n", green(best.Name), rep.Selection.BestF1)
		fmt.Printf("Test weighted F1: %.4f\n", rep.TestMetrics.WeightedF1)
		fmt.Printf("Test accuracy: %.4f\n", rep.TestMetrics.Accuracy)
		if cvr := rep.CrossValidation; cvr != nil {
			fmt.Printf("Cross-validated weighted F1 (%d folds): %.4f ± %.4f\n", len(cvr.Scores), cvr.Mean, cvr.Std)
		}
		fmt.Println("\nClassification report (test):")
		fmt.Println(rep.TestMetrics.ClassificationReport())
	}

	saved, err := persistWinner(cfg, runID, ds.Features, rep)
	if err != nil {
		return err
	}
	if saved {
		run.Winner = rep.Selection.Best.Name
		run.ValidationF1 = rep.Selection.BestF1
		run.TestAccuracy = rep.TestMetrics.Accuracy
		run.TestF1 = rep.TestMetrics.WeightedF1
		run.ModelPath = cfg.Artifacts.ModelPath
	} else {
		fmt.Printf("%s No candidate scored above zero, model not saved\n", red("✗"))
	}

	if plotPath != "" {
		err := report.ClassDistributionChart(plotPath, []report.Distribution{
			{Label: "original", Counts: data.ClassDistribution(raw.Y)},
			{Label: "merged", Counts: data.ClassDistribution(ds.Y)},
			{Label: "train", Counts: rep.TrainBefore},
			{Label: "train+smote", Counts: rep.TrainAfter},
		})
		if err != nil {
			log.Printf("Failed to write chart: %v", err)
		} else {
			fmt.Printf("Class distribution chart saved to: %s\n", plotPath)
		}
	}

	if resultsPath != "" {
		if err := experiment.ExportResults(experiment.Results(cfg.Data.Path, rep), resultsPath); err != nil {
			log.Printf("Failed to export results: %v", err)
		} else {
			fmt.Printf("Candidate results saved to: %s\n", resultsPath)
		}
	}

	run.FinishedAt = time.Now()
	if cfg.Registry.Path != "" {
		if err := recordRun(ctx, cfg.Registry.Path, run); err != nil {
			log.Printf("Failed to record run: %v", err)
		}
	}

	fmt.Printf("\nTraining completed in %v\n", rep.Duration.Round(time.Millisecond))
	return nil
}

// persistWinner writes the model bundle and scaler of the selected candidate.
// It reports false and writes nothing when selection produced no winner.
func persistWinner(cfg *config.Config, runID string, features []string, rep *experiment.Report) (bool, error) {
	best := rep.Selection.Best
	if best == nil {
		return false, nil
	}

	bundle := persistence.NewModelBundle(best.Model)
	bundle.Metadata.RunID = runID
	bundle.Metadata.Candidate = best.Name
	bundle.Metadata.Dataset = cfg.Data.Path
	bundle.Metadata.ValidationF1 = rep.Selection.BestF1
	bundle.Metadata.TestAccuracy = rep.TestMetrics.Accuracy
	bundle.Metadata.TestF1 = rep.TestMetrics.WeightedF1
	bundle.Metadata.TrainingTime = rep.Selection.Results[rep.Selection.BestIndex].TrainingTime
	bundle.Metadata.Features = features

	if err := saveArtifacts(cfg.Artifacts, bundle, rep); err != nil {
		return false, err
	}
	return true, nil
}

func saveArtifacts(paths config.ArtifactsConfig, bundle *persistence.ModelBundle, rep *experiment.Report) error {
	for _, p := range []string{paths.ModelPath, paths.ScalerPath, paths.MetadataPath} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
	}

	if err := bundle.Save(paths.ModelPath); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	fmt.Printf("Model saved to: %s\n", paths.ModelPath)

	if err := persistence.SaveScaler(paths.ScalerPath, rep.Scaler); err != nil {
		return fmt.Errorf("save scaler: %w", err)
	}
	fmt.Printf("Scaler saved to: %s\n", paths.ScalerPath)

	if paths.MetadataPath != "" {
		if err := bundle.SaveMetadata(paths.MetadataPath); err != nil {
			log.Printf("Failed to save metadata: %v", err)
		}
	}

	return nil
}

func recordRun(ctx context.Context, path string, run *registry.Run) error {
	reg, err := registry.Open(path)
	if err != nil {
		return err
	}
	defer reg.Close()

	return reg.RecordRun(ctx, run)
}

func printHistory(ctx context.Context, path string, limit int) error {
	if path == "" {
		return fmt.Errorf("run registry is disabled in config")
	}

	reg, err := registry.Open(path)
	if err != nil {
		return err
	}
	defer reg.Close()

	runs, err := reg.RecentRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("read registry: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No training runs recorded")
		return nil
	}

	for _, run := range runs {
		winner := run.Winner
		if winner == "" {
			winner = red("none")
		} else {
			winner = green(winner)
		}

		fmt.Printf("%s  %s  %s  rows=%d smote=%v  val F1 %.4f  test F1 %.4f  test acc %.4f\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			cyan(shortID(run.ID)), winner, run.Rows, run.SMOTEApplied,
			run.ValidationF1, run.TestF1, run.TestAccuracy)

		for _, c := range run.Candidates {
			fmt.Printf("    %-20s %.4f\n", c.Name, c.ValidationF1)
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printDistribution(title string, dist []data.ClassCount) {
	total := 0
	for _, cc := range dist {
		total += cc.Count
	}

	fmt.Printf("%s:\n", title)
	for _, cc := range dist {
		pct := 0.0
		if total > 0 {
			pct = 100 * float64(cc.Count) / float64(total)
		}
		fmt.Printf("  quality %d: %5d (%5.1f%%)\n", cc.Class, cc.Count, pct)
	}
}
