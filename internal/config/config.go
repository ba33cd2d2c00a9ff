// Package config resolves the experiment configuration from defaults, an
// optional YAML file, a .env file and RPROJ_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/happyhackingspace/rproj"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. RPROJ_EPSILON.
const EnvPrefix = "RPROJ"

var validate = validator.New()

// Load builds the configuration. Later sources override earlier ones:
// defaults, the YAML file at path (skipped when path is empty), variables
// from envFile (skipped when missing), then the process environment.
func Load(path, envFile string) (*rproj.ExperimentConfig, error) {
	cfg := rproj.DefaultExperimentConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		slog.Debug("Loaded config file", "path", path)
	}

	if envFile != "" {
		// godotenv never overrides variables already set in the environment
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: load %s: %w", envFile, err)
			}
		} else {
			slog.Debug("Loaded env file", "path", envFile)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	return cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *rproj.ExperimentConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("config: invalid %s %v (%s): %w", first.Field(), first.Value(), first.Tag(), err)
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Write stores cfg as YAML at path.
func Write(cfg *rproj.ExperimentConfig, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
