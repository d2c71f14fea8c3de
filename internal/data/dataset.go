package data

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"

	"winequality/internal/preprocessing"
)

type Dataset struct {
	X          [][]decimal.Decimal
	Y          []int
	Features   []string
	SourceFile string
}

func (d *Dataset) Len() int {
	return len(d.X)
}

// Normalized returns a copy whose labels have the rare grades merged.
// Feature rows are shared with the receiver.
func (d *Dataset) Normalized() *Dataset {
	return &Dataset{
		X:          d.X,
		Y:          preprocessing.NormalizeQualities(d.Y),
		Features:   d.Features,
		SourceFile: d.SourceFile,
	}
}

// Subset returns the rows at indices, in order.
func (d *Dataset) Subset(indices []int) ([][]decimal.Decimal, []int) {
	X := make([][]decimal.Decimal, len(indices))
	y := make([]int, len(indices))
	for i, idx := range indices {
		X[i] = d.X[idx]
		y[i] = d.Y[idx]
	}
	return X, y
}

type CSVReader struct {
	filename string
}

func NewCSVReader(filename string) *CSVReader {
	return &CSVReader{filename: filename}
}

// LoadData reads the dataset with its raw quality labels. The Id column is
// dropped when present; every other column except quality is a feature.
func (cr *CSVReader) LoadData() (*Dataset, error) {
	file, err := os.Open(cr.filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	df := dataframe.ReadCSV(file,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", cr.filename, df.Err)
	}

	if hasColumn(df.Names(), IDColumn) {
		df = df.Drop(IDColumn)
		if df.Err != nil {
			return nil, fmt.Errorf("failed to drop %s column: %w", IDColumn, df.Err)
		}
	}

	if !hasColumn(df.Names(), LabelColumn) {
		return nil, fmt.Errorf("missing %q column in %s", LabelColumn, cr.filename)
	}
	if df.Nrow() == 0 {
		return nil, fmt.Errorf("insufficient data in file")
	}

	var features []string
	for _, name := range df.Names() {
		if name != LabelColumn {
			features = append(features, name)
		}
	}

	n := df.Nrow()
	X := make([][]decimal.Decimal, n)
	for i := range X {
		X[i] = make([]decimal.Decimal, len(features))
	}

	for j, name := range features {
		for i, raw := range df.Col(name).Records() {
			val, err := decimal.NewFromString(strings.TrimSpace(raw))
			if err != nil {
				return nil, fmt.Errorf("invalid value %q for %s at row %d: %w", raw, name, i+1, err)
			}
			X[i][j] = val
		}
	}

	y := make([]int, n)
	for i, raw := range df.Col(LabelColumn).Records() {
		label, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid quality %q at row %d: %w", raw, i+1, err)
		}
		y[i] = label
	}

	return &Dataset{
		X:          X,
		Y:          y,
		Features:   features,
		SourceFile: cr.filename,
	}, nil
}

// LoadWineDataset loads, validates and normalizes the wine dataset. Training and
// serving both go through it so the label merge is applied identically.
func LoadWineDataset(filename string) (*Dataset, error) {
	ds, err := LoadRawWineDataset(filename)
	if err != nil {
		return nil, err
	}
	return ds.Normalized(), nil
}

// LoadRawWineDataset validates the wine schema but keeps the original labels.
func LoadRawWineDataset(filename string) (*Dataset, error) {
	ds, err := NewCSVReader(filename).LoadData()
	if err != nil {
		return nil, err
	}

	validator := NewDataValidator()
	if err := validator.ValidateWineSchema(ds); err != nil {
		return nil, err
	}
	if err := validator.ValidateDataset(ds.X, ds.Y); err != nil {
		return nil, err
	}
	if err := validator.ValidateLabels(ds.Y); err != nil {
		return nil, err
	}

	return ds, nil
}

func hasColumn(names []string, column string) bool {
	for _, name := range names {
		if name == column {
			return true
		}
	}
	return false
}
