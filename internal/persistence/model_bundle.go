package persistence

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"winequality/internal/models"
	"winequality/internal/preprocessing"
)

var ErrUnknownModel = errors.New("bundle does not hold a known model")

func init() {
	gob.Register(&models.LogisticRegression{})
	gob.Register(&models.DecisionTree{})
	gob.Register(&models.RandomForest{})
}

type ModelBundle struct {
	Model     models.Model
	Metadata  BundleMetadata
	CreatedAt time.Time
}

type BundleMetadata struct {
	RunID        string
	ModelName    string
	Candidate    string
	Dataset      string
	ValidationF1 float64
	TestAccuracy float64
	TestF1       float64
	TrainingTime time.Duration
	Features     []string
	Classes      []int
	Parameters   map[string]any
}

func NewModelBundle(model models.Model) *ModelBundle {
	return &ModelBundle{
		Model:     model,
		CreatedAt: time.Now(),
		Metadata: BundleMetadata{
			ModelName:  model.GetName(),
			Classes:    model.GetClasses(),
			Parameters: model.GetParams(),
		},
	}
}

func (mb *ModelBundle) Save(filename string) error {
	if mb.Model == nil {
		return ErrUnknownModel
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(mb); err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}

	return file.Close()
}

func LoadModelBundle(filename string) (*ModelBundle, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var bundle ModelBundle
	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("failed to decode bundle: %w", err)
	}

	if bundle.Model == nil {
		return nil, fmt.Errorf("%s: %w", filename, ErrUnknownModel)
	}

	return &bundle, nil
}

// SaveMetadata writes a human readable summary next to the model file.
func (mb *ModelBundle) SaveMetadata(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	classes := make([]string, len(mb.Metadata.Classes))
	for i, c := range mb.Metadata.Classes {
		classes[i] = fmt.Sprint(c)
	}

	fmt.Fprintf(file, "Run: %s\n", mb.Metadata.RunID)
	fmt.Fprintf(file, "Model: %s (%s)\n", mb.Metadata.Candidate, mb.Metadata.ModelName)
	fmt.Fprintf(file, "Dataset: %s\n", mb.Metadata.Dataset)
	fmt.Fprintf(file, "Created: %s\n", mb.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(file, "Validation weighted F1: %.4f\n", mb.Metadata.ValidationF1)
	fmt.Fprintf(file, "Test accuracy: %.4f\n", mb.Metadata.TestAccuracy)
	fmt.Fprintf(file, "Test weighted F1: %.4f\n", mb.Metadata.TestF1)
	fmt.Fprintf(file, "Training Time: %v\n", mb.Metadata.TrainingTime)
	fmt.Fprintf(file, "Classes: %s\n", strings.Join(classes, ", "))
	fmt.Fprintf(file, "Features: %s\n", strings.Join(mb.Metadata.Features, ", "))
	fmt.Fprintf(file, "Parameters: %v\n", mb.Metadata.Parameters)

	return file.Close()
}

func SaveScaler(filename string, scaler *preprocessing.Scaler) error {
	if scaler == nil || !scaler.IsFitted {
		return preprocessing.ErrNotFitted
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(scaler); err != nil {
		return fmt.Errorf("failed to encode scaler: %w", err)
	}

	return file.Close()
}

func LoadScaler(filename string) (*preprocessing.Scaler, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var scaler preprocessing.Scaler
	if err := gob.NewDecoder(file).Decode(&scaler); err != nil {
		return nil, fmt.Errorf("failed to decode scaler: %w", err)
	}

	if !scaler.IsFitted {
		return nil, fmt.Errorf("%s: %w", filename, preprocessing.ErrNotFitted)
	}

	return &scaler, nil
}
