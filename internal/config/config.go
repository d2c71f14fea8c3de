package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Data      DataConfig      `yaml:"data"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Training  TrainingConfig  `yaml:"training"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Registry  RegistryConfig  `yaml:"registry"`
}

type DataConfig struct {
	Path string `yaml:"path"`
}

type ArtifactsConfig struct {
	ModelPath    string `yaml:"model_path"`
	ScalerPath   string `yaml:"scaler_path"`
	MetadataPath string `yaml:"metadata_path"` // human readable summary, empty disables it
}

type TrainingConfig struct {
	Seed           int64   `yaml:"seed"`
	ValidationSize float64 `yaml:"validation_size"`
	TestSize       float64 `yaml:"test_size"`
	SMOTENeighbors int     `yaml:"smote_neighbors"` // upper bound, lowered to min class count - 1
	CVFolds        int     `yaml:"cv_folds"`        // k-fold check of the winner, below 2 disables it

	Logistic LogisticConfig `yaml:"logistic"`
	Tree     TreeConfig     `yaml:"tree"`
	Forest   ForestConfig   `yaml:"forest"`
}

type LogisticConfig struct {
	MaxIter      int     `yaml:"max_iter"`
	LearningRate float64 `yaml:"learning_rate"`
	C            float64 `yaml:"c"`
	Tol          float64 `yaml:"tol"`
}

type TreeConfig struct {
	MaxDepth        int `yaml:"max_depth"`
	MinSamplesSplit int `yaml:"min_samples_split"`
}

type ForestConfig struct {
	NTrees          int `yaml:"n_trees"`
	MaxDepth        int `yaml:"max_depth"`
	MinSamplesSplit int `yaml:"min_samples_split"`
	MaxWorkers      int `yaml:"max_workers"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type RegistryConfig struct {
	Path string `yaml:"path"` // sqlite file, empty disables run history
}

func Default() *Config {
	return &Config{
		Data: DataConfig{Path: "data/WineQT.csv"},
		Artifacts: ArtifactsConfig{
			ModelPath:    "best_model.gob",
			ScalerPath:   "scaler.gob",
			MetadataPath: "best_model.txt",
		},
		Training: TrainingConfig{
			Seed:           42,
			ValidationSize: 0.15,
			TestSize:       0.15,
			SMOTENeighbors: 5,
			CVFolds:        5,
			Logistic: LogisticConfig{
				MaxIter:      1000,
				LearningRate: 0.5,
				C:            1.0,
				Tol:          1e-4,
			},
			Tree: TreeConfig{
				MaxDepth:        20,
				MinSamplesSplit: 2,
			},
			Forest: ForestConfig{
				NTrees:          100,
				MaxDepth:        20,
				MinSamplesSplit: 2,
				MaxWorkers:      4,
			},
		},
		Server: ServerConfig{
			Addr:         "0.0.0.0:5000",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Registry: RegistryConfig{Path: "runs.db"},
	}
}

// Load returns the defaults overlaid with the YAML file at configPath. An empty
// path searches configs/wine.yaml and wine.yaml and falls back to defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		for _, p := range []string{"configs/wine.yaml", "wine.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, err
				}
				applyDefaults(cfg)
				return cfg, nil
			}
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Data.Path == "" {
		cfg.Data.Path = def.Data.Path
	}
	if cfg.Artifacts.ModelPath == "" {
		cfg.Artifacts.ModelPath = def.Artifacts.ModelPath
	}
	if cfg.Artifacts.ScalerPath == "" {
		cfg.Artifacts.ScalerPath = def.Artifacts.ScalerPath
	}

	t := &cfg.Training
	if t.ValidationSize <= 0 || t.TestSize <= 0 || t.ValidationSize+t.TestSize >= 1 {
		t.ValidationSize = def.Training.ValidationSize
		t.TestSize = def.Training.TestSize
	}
	if t.SMOTENeighbors <= 0 {
		t.SMOTENeighbors = def.Training.SMOTENeighbors
	}
	if t.Logistic.MaxIter <= 0 {
		t.Logistic.MaxIter = def.Training.Logistic.MaxIter
	}
	if t.Logistic.LearningRate <= 0 {
		t.Logistic.LearningRate = def.Training.Logistic.LearningRate
	}
	if t.Logistic.C <= 0 {
		t.Logistic.C = def.Training.Logistic.C
	}
	if t.Logistic.Tol <= 0 {
		t.Logistic.Tol = def.Training.Logistic.Tol
	}
	if t.Tree.MaxDepth <= 0 {
		t.Tree.MaxDepth = def.Training.Tree.MaxDepth
	}
	if t.Tree.MinSamplesSplit < 2 {
		t.Tree.MinSamplesSplit = def.Training.Tree.MinSamplesSplit
	}
	if t.Forest.NTrees <= 0 {
		t.Forest.NTrees = def.Training.Forest.NTrees
	}
	if t.Forest.MaxDepth <= 0 {
		t.Forest.MaxDepth = def.Training.Forest.MaxDepth
	}
	if t.Forest.MinSamplesSplit < 2 {
		t.Forest.MinSamplesSplit = def.Training.Forest.MinSamplesSplit
	}
	if t.Forest.MaxWorkers <= 0 {
		t.Forest.MaxWorkers = def.Training.Forest.MaxWorkers
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = def.Server.ReadTimeout
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = def.Server.WriteTimeout
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
}
