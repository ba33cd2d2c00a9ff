package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/happyhackingspace/rproj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, rproj.DefaultExperimentConfig(), cfg)
	assert.NoError(t, Validate(cfg))
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rproj.yaml")
	yaml := `data_folder: corpus
format: bydate
remove: [headers, quotes]
epsilon: 0.2
bound: strict
arms: [projected]
epochs: 5
seed: 7
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "corpus", cfg.DataFolder)
	assert.Equal(t, "bydate", cfg.Format)
	assert.Equal(t, []string{"headers", "quotes"}, cfg.Remove)
	assert.Equal(t, 0.2, cfg.Epsilon)
	assert.Equal(t, rproj.BoundStrict, cfg.Bound)
	assert.Equal(t, []string{rproj.ArmProjected}, cfg.Arms)
	assert.Equal(t, 5, cfg.Epochs)
	assert.Equal(t, uint64(7), cfg.Seed)
	// untouched keys keep their defaults
	assert.Equal(t, 100, cfg.Hidden)
	assert.NoError(t, Validate(cfg))
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rproj.yaml")
	require.NoError(t, os.WriteFile(path, []byte("epochs: 5\nhidden: 50\n"), 0o644))
	t.Setenv("RPROJ_EPOCHS", "3")
	t.Setenv("RPROJ_ARMS", "full")
	t.Setenv("RPROJ_LEARNING_RATE", "0.01")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Epochs)
	assert.Equal(t, 50, cfg.Hidden)
	assert.Equal(t, []string{rproj.ArmFull}, cfg.Arms)
	assert.Equal(t, 0.01, cfg.LearningRate)
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("RPROJ_BATCH_SIZE=32\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("RPROJ_BATCH_SIZE") })

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.BatchSize)

	// a missing env file is not an error
	_, err = Load("", filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("epochs: [not, a, number]\n"), 0o644))
	_, err = Load(path, "")
	assert.Error(t, err)

	t.Setenv("RPROJ_EPOCHS", "many")
	_, err = Load("", "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*rproj.ExperimentConfig)
	}{
		{"epsilon too large", func(c *rproj.ExperimentConfig) { c.Epsilon = 1 }},
		{"epsilon zero", func(c *rproj.ExperimentConfig) { c.Epsilon = 0 }},
		{"unknown format", func(c *rproj.ExperimentConfig) { c.Format = "pickle" }},
		{"unknown bound", func(c *rproj.ExperimentConfig) { c.Bound = "tight" }},
		{"unknown remove", func(c *rproj.ExperimentConfig) { c.Remove = []string{"signatures"} }},
		{"no arms", func(c *rproj.ExperimentConfig) { c.Arms = nil }},
		{"unknown arm", func(c *rproj.ExperimentConfig) { c.Arms = []string{"pca"} }},
		{"zero epochs", func(c *rproj.ExperimentConfig) { c.Epochs = 0 }},
		{"density above one", func(c *rproj.ExperimentConfig) { c.Density = 2 }},
		{"empty data folder", func(c *rproj.ExperimentConfig) { c.DataFolder = "" }},
		{"unknown analyzer", func(c *rproj.ExperimentConfig) { c.Analyzer = "char" }},
		{"zero ngram min", func(c *rproj.ExperimentConfig) { c.NgramMin = 0 }},
		{"ngram max below min", func(c *rproj.ExperimentConfig) { c.NgramMin, c.NgramMax = 3, 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := rproj.DefaultExperimentConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			var verrs validator.ValidationErrors
			assert.ErrorAs(t, err, &verrs)
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := rproj.DefaultExperimentConfig()
	cfg.Seed = 11
	cfg.Remove = []string{"footers"}
	cfg.Analyzer = "char_wb"
	cfg.NgramMin, cfg.NgramMax = 2, 4
	cfg.Binary = true
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Write(cfg, path))

	loaded, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
