package experiment

import (
	"fmt"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ExperimentResult is one candidate row of a training run, as exported to CSV.
type ExperimentResult struct {
	Dataset            string
	Candidate          string
	Algorithm          string
	Parameters         string
	ValidationF1       float64
	ValidationAccuracy float64
	Selected           bool
	TrainingTimeMs     int
}

// Results flattens the selection of a run into exportable rows.
func Results(dataset string, report *Report) []ExperimentResult {
	if report == nil || report.Selection == nil {
		return nil
	}

	sel := report.Selection
	results := make([]ExperimentResult, len(sel.Results))
	for i, r := range sel.Results {
		results[i] = ExperimentResult{
			Dataset:            dataset,
			Candidate:          r.Name,
			Algorithm:          r.Algorithm,
			Parameters:         r.Parameters,
			ValidationF1:       r.ValidationF1,
			ValidationAccuracy: r.ValidationAccuracy,
			Selected:           i == sel.BestIndex,
			TrainingTimeMs:     int(r.TrainingTime.Milliseconds()),
		}
	}
	return results
}

func ResultsFrame(results []ExperimentResult) dataframe.DataFrame {
	n := len(results)
	var (
		datasets   = make([]string, n)
		candidates = make([]string, n)
		algorithms = make([]string, n)
		params     = make([]string, n)
		f1         = make([]float64, n)
		accuracy   = make([]float64, n)
		selected   = make([]bool, n)
		timings    = make([]int, n)
	)

	for i, r := range results {
		datasets[i] = r.Dataset
		candidates[i] = r.Candidate
		algorithms[i] = r.Algorithm
		params[i] = r.Parameters
		f1[i] = r.ValidationF1
		accuracy[i] = r.ValidationAccuracy
		selected[i] = r.Selected
		timings[i] = r.TrainingTimeMs
	}

	return dataframe.New(
		series.New(datasets, series.String, "Dataset"),
		series.New(candidates, series.String, "Candidate"),
		series.New(algorithms, series.String, "Algorithm"),
		series.New(params, series.String, "Parameters"),
		series.New(f1, series.Float, "ValidationF1"),
		series.New(accuracy, series.Float, "ValidationAccuracy"),
		series.New(selected, series.Bool, "Selected"),
		series.New(timings, series.Int, "TrainingTimeMs"),
	)
}

func ExportResults(results []ExperimentResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	df := ResultsFrame(results)
	if df.Err != nil {
		return fmt.Errorf("build results frame: %w", df.Err)
	}

	return df.WriteCSV(file)
}
