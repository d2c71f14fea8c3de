package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	_, err := Load("/nonexistent/path/wine.yaml")
	require.Error(t, err)

	cfg := Default()
	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr)
	assert.Equal(t, int64(42), cfg.Training.Seed)
	assert.Equal(t, "best_model.gob", cfg.Artifacts.ModelPath)
	assert.Equal(t, "scaler.gob", cfg.Artifacts.ScalerPath)
	assert.Equal(t, "data/WineQT.csv", cfg.Data.Path)
	assert.InDelta(t, 0.15, cfg.Training.ValidationSize, 1e-12)
	assert.InDelta(t, 0.15, cfg.Training.TestSize, 1e-12)
	assert.Equal(t, 5, cfg.Training.SMOTENeighbors)
	assert.Equal(t, 5, cfg.Training.CVFolds)
	assert.Equal(t, 1000, cfg.Training.Logistic.MaxIter)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wine.yaml")
	content := `
data:
  path: "other.csv"
training:
  seed: 7
  forest:
    n_trees: 10
server:
  addr: ":8080"
  read_timeout: 2s
log:
  format: json
registry:
  path: ""
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "other.csv", cfg.Data.Path)
	assert.Equal(t, int64(7), cfg.Training.Seed)
	assert.Equal(t, 10, cfg.Training.Forest.NTrees)
	assert.Equal(t, 20, cfg.Training.Forest.MaxDepth)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "", cfg.Registry.Path)
}

func TestLoadFixesInvalidSplit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wine.yaml")
	content := `
training:
  validation_size: 0.6
  test_size: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.15, cfg.Training.ValidationSize, 1e-12)
	assert.InDelta(t, 0.15, cfg.Training.TestSize, 1e-12)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("training: [oops"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
