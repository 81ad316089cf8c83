// Package config loads the underwriting service configuration from a YAML
// file, a .env file and the process environment, in that order of
// precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"deal_underwriting/pkg/core/assumption"
)

// DefaultPath is where the service looks for its YAML config.
const DefaultPath = "config/underwriting.yaml"

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Database    DatabaseConfig    `yaml:"database"`
	Scenarios   ScenarioConfig    `yaml:"scenarios"`
	Seed        assumption.Seed   `yaml:"defaults"`
	Bounds      assumption.Bounds `yaml:"bounds"`
	Sensitivity SensitivityConfig `yaml:"sensitivity"`
}

type ServerConfig struct {
	Port           int  `yaml:"port"`
	ReleaseMode    bool `yaml:"release_mode"`
	MetricsEnabled bool `yaml:"metrics_enabled"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig points at Postgres. An empty URL selects the file store.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type ScenarioConfig struct {
	CacheDir string `yaml:"cache_dir"`
}

// DefaultMaxSteps caps the values on one sensitivity axis.
const DefaultMaxSteps = 25

// SensitivityConfig holds the default two-way grid shown on the deal screen.
// MaxSteps bounds each axis of a requested grid.
type SensitivityConfig struct {
	RowVariable string  `yaml:"row_variable" json:"row_variable"`
	RowStep     float64 `yaml:"row_step" json:"row_step"`
	ColVariable string  `yaml:"col_variable" json:"col_variable"`
	ColStep     float64 `yaml:"col_step" json:"col_step"`
	Steps       int     `yaml:"steps" json:"steps"`
	MaxSteps    int     `yaml:"max_steps" json:"max_steps"`
}

// StepLimit returns MaxSteps, or DefaultMaxSteps when it is unset.
func (s SensitivityConfig) StepLimit() int {
	if s.MaxSteps <= 0 {
		return DefaultMaxSteps
	}
	return s.MaxSteps
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Port: 8080, MetricsEnabled: true},
		Logging:   LoggingConfig{Level: "info"},
		Scenarios: ScenarioConfig{CacheDir: ".cache/scenarios"},
		Seed:      assumption.DefaultSeed(),
		Bounds:    assumption.DefaultBounds(),
		Sensitivity: SensitivityConfig{
			RowVariable: "exit_cap",
			RowStep:     0.25,
			ColVariable: "rent_growth",
			ColStep:     0.5,
			Steps:       5,
			MaxSteps:    DefaultMaxSteps,
		},
	}
}

// Load reads path (a missing file is not an error), then .env, then the
// environment. Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	// .env is optional; values already in the environment are not overridden.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SCENARIO_CACHE_DIR"); v != "" {
		c.Scenarios.CacheDir = v
	}
	if v := os.Getenv("GIN_MODE"); v == "release" {
		c.Server.ReleaseMode = true
	}
	return nil
}
