package server

import (
	"errors"
	"fmt"
	"math/rand"

	"winequality/internal/data"
	"winequality/internal/models"
	"winequality/internal/persistence"
	"winequality/internal/preprocessing"
)

var ErrFeatureCount = fmt.Errorf("expected %d features", data.NumFeatures)

type FeatureView struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// FeatureHint is the observed range of one feature in the sample dataset.
type FeatureHint struct {
	Name string
	Unit string
	Min  float64
	Max  float64
}

// HomeView is one dataset row scored by the model.
type HomeView struct {
	Features  []FeatureView `json:"features"`
	Actual    int           `json:"actual"`
	Predicted int           `json:"predicted"`
	Accuracy  float64       `json:"accuracy"`
}

// App is built once at startup and only read afterwards. Handlers share it
// without locking.
type App struct {
	model    models.Model
	scaler   *preprocessing.Scaler
	rows     [][]float64
	labels   []int
	hints    []FeatureHint
	metadata persistence.BundleMetadata
	pick     func(n int) int
}

type Option func(*App)

// WithPicker replaces the uniform row picker used by Sample.
func WithPicker(pick func(n int) int) Option {
	return func(a *App) { a.pick = pick }
}

func WithMetadata(md persistence.BundleMetadata) Option {
	return func(a *App) { a.metadata = md }
}

// NewApp copies the dataset rows to float64 so Sample can feed them straight
// to the scaler. The dataset labels must already be normalized.
func NewApp(model models.Model, scaler *preprocessing.Scaler, ds *data.Dataset, opts ...Option) (*App, error) {
	if model == nil {
		return nil, persistence.ErrUnknownModel
	}
	if scaler == nil || !scaler.IsFitted {
		return nil, preprocessing.ErrNotFitted
	}
	if scaler.NumFeatures() != data.NumFeatures {
		return nil, fmt.Errorf("scaler has %d features: %w", scaler.NumFeatures(), ErrFeatureCount)
	}
	if ds == nil || ds.Len() == 0 {
		return nil, errors.New("sample dataset is empty")
	}

	app := &App{
		model:  model,
		scaler: scaler,
		rows:   make([][]float64, ds.Len()),
		labels: append([]int(nil), ds.Y...),
		pick:   rand.Intn,
	}

	for i, row := range ds.X {
		if len(row) != data.NumFeatures {
			return nil, fmt.Errorf("dataset row %d has %d features: %w", i, len(row), ErrFeatureCount)
		}
		app.rows[i] = make([]float64, len(row))
		for j, v := range row {
			app.rows[i][j] = v.InexactFloat64()
		}
	}

	for j, fr := range data.FeatureRanges(ds.X) {
		app.hints = append(app.hints, FeatureHint{
			Name: data.FeatureNames[j],
			Unit: data.FeatureUnits[j],
			Min:  fr.Min.InexactFloat64(),
			Max:  fr.Max.InexactFloat64(),
		})
	}

	for _, opt := range opts {
		opt(app)
	}

	return app, nil
}

func (a *App) Metadata() persistence.BundleMetadata {
	return a.metadata
}

// FeatureHints lists every feature in model order with its dataset range.
func (a *App) FeatureHints() []FeatureHint {
	return a.hints
}

func (a *App) NumSamples() int {
	return len(a.rows)
}

// Predict scales one raw feature vector and returns the predicted quality.
func (a *App) Predict(features []float64) (int, error) {
	if len(features) != data.NumFeatures {
		return 0, fmt.Errorf("got %d: %w", len(features), ErrFeatureCount)
	}

	scaled, err := a.scaler.TransformRow(features)
	if err != nil {
		return 0, err
	}

	return a.model.Predict([][]float64{scaled})[0], nil
}

// Sample scores a uniformly drawn dataset row.
func (a *App) Sample() (HomeView, error) {
	i := a.pick(len(a.rows))
	row := a.rows[i]

	predicted, err := a.Predict(row)
	if err != nil {
		return HomeView{}, err
	}

	view := HomeView{
		Features:  make([]FeatureView, len(row)),
		Actual:    a.labels[i],
		Predicted: predicted,
		Accuracy:  Accuracy(a.labels[i], predicted),
	}
	for j, v := range row {
		view.Features[j] = FeatureView{Name: data.FeatureNames[j], Value: v, Unit: data.FeatureUnits[j]}
	}

	return view, nil
}

// Accuracy is the display score of a single prediction on the 0..9 quality
// range: 100 for an exact hit, minus 100/9 per grade of error.
func Accuracy(actual, predicted int) float64 {
	diff := actual - predicted
	if diff < 0 {
		diff = -diff
	}
	return 100 - 100*float64(diff)/9
}
