package testsupport

import (
	"path/filepath"
	"testing"

	"scout/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Source.Name = "testsource"
	cfg.Source.SearchPrompt = "find test listings"
	cfg.LLM.APIKey = "test"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithCalibrationThreshold overrides the override count that triggers
// calibration.
func WithCalibrationThreshold(threshold int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.CalibrationThreshold = threshold
	}
}

// WithEnrichmentPrompt enables the enrichment stage with the given prompt.
func WithEnrichmentPrompt(prompt string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.EnrichmentPrompt = prompt
	}
}
