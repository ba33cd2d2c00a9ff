// Package rproj measures how well sparse random projections preserve the
// information a classifier needs.
//
// It vectorizes a labelled corpus (Twenty Newsgroups by default) with
// TF-IDF, projects the document-term matrix to the Johnson-Lindenstrauss
// dimension for a chosen distortion, and trains the same two-layer network on
// the projected and the full representation.
//
//	cfg := rproj.DefaultExperimentConfig()
//	cfg.DataFolder = "data"
//	res, _ := rproj.Run(cfg)
//	fmt.Println(res.MinDim)               // 934
//	fmt.Println(res.Projected.Accuracy)   // ~0.62
//	fmt.Println(res.Full.Accuracy)        // ~0.65
package rproj

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
)

// Arms of the experiment.
const (
	ArmProjected = "projected"
	ArmFull      = "full"
)

// Bounds for the number of projected components.
const (
	BoundLoose  = "loose"
	BoundStrict = "strict"
)

// ExperimentConfig holds every knob of a run.
type ExperimentConfig struct {
	DataFolder string   `yaml:"data_folder" envconfig:"DATA_FOLDER" validate:"required"`
	Format     string   `yaml:"format" envconfig:"FORMAT" validate:"oneof=json bydate"`
	Remove     []string `yaml:"remove" envconfig:"REMOVE" validate:"dive,oneof=headers footers quotes"`

	// Vectorizer. Analyzer "word" builds token n-grams, "char_wb" character
	// n-grams padded within word boundaries.
	Analyzer    string  `yaml:"analyzer" envconfig:"ANALYZER" validate:"oneof=word char_wb"`
	NgramMin    int     `yaml:"ngram_min" envconfig:"NGRAM_MIN" validate:"gte=1"`
	NgramMax    int     `yaml:"ngram_max" envconfig:"NGRAM_MAX" validate:"gtefield=NgramMin"`
	Binary      bool    `yaml:"binary" envconfig:"BINARY"`
	MinDF       int     `yaml:"min_df" envconfig:"MIN_DF" validate:"gte=1"`
	MaxDF       float64 `yaml:"max_df" envconfig:"MAX_DF" validate:"gt=0,lte=1"`
	StopWords   bool    `yaml:"stop_words" envconfig:"STOP_WORDS"`
	Stem        bool    `yaml:"stem" envconfig:"STEM"`
	SublinearTF bool    `yaml:"sublinear_tf" envconfig:"SUBLINEAR_TF"`

	// Projection. Components 0 derives the dimension from Epsilon and Bound;
	// Density 0 means 1/√n.
	Epsilon    float64 `yaml:"epsilon" envconfig:"EPSILON" validate:"gt=0,lt=1"`
	Bound      string  `yaml:"bound" envconfig:"BOUND" validate:"oneof=loose strict"`
	Components int     `yaml:"components" envconfig:"COMPONENTS" validate:"gte=0"`
	Density    float64 `yaml:"density" envconfig:"DENSITY" validate:"gte=0,lte=1"`

	// Classifier
	Arms         []string `yaml:"arms" envconfig:"ARMS" validate:"min=1,dive,oneof=projected full"`
	Hidden       int      `yaml:"hidden" envconfig:"HIDDEN" validate:"gt=0"`
	Epochs       int      `yaml:"epochs" envconfig:"EPOCHS" validate:"gt=0"`
	BatchSize    int      `yaml:"batch_size" envconfig:"BATCH_SIZE" validate:"gt=0"`
	LearningRate float64  `yaml:"learning_rate" envconfig:"LEARNING_RATE" validate:"gt=0"`

	// Seed 0 draws from entropy, so runs differ.
	Seed uint64 `yaml:"seed" envconfig:"SEED"`
}

// DefaultExperimentConfig returns the configuration of the reference run:
// ε = 0.1, 100 hidden units, 12 epochs, batches of 100, both arms.
func DefaultExperimentConfig() *ExperimentConfig {
	return &ExperimentConfig{
		DataFolder:   "data",
		Format:       "json",
		Analyzer:     "word",
		NgramMin:     1,
		NgramMax:     1,
		MinDF:        1,
		MaxDF:        1.0,
		Epsilon:      0.1,
		Bound:        BoundLoose,
		Arms:         []string{ArmProjected, ArmFull},
		Hidden:       100,
		Epochs:       12,
		BatchSize:    100,
		LearningRate: 0.001,
	}
}

// source returns the random stream for one consumer of a run. Streams of the
// same seed are independent of each other.
func (cfg *ExperimentConfig) source(stream uint64) rand.Source {
	if cfg.Seed == 0 {
		return rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return rand.NewPCG(cfg.Seed, stream)
}

// FindDataFolder looks for a directory called name in the current directory
// and its parents up to the module root (where go.mod lives).
func FindDataFolder(name string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, name)
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			return path, nil
		}
		// Stop at module root
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("rproj: %s folder not found", name)
}
