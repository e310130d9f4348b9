package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSource() error {
	if c.Source.SearchPrompt == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/scout/config.toml"
		}
		return fmt.Errorf("source.search_prompt is required. Edit %s (create with 'scout config init')", defaultPath)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if err := ensurePositiveMap(map[string]int{
		"pipeline.hydrate_concurrency":   c.Pipeline.HydrateConcurrency,
		"pipeline.enrich_concurrency":    c.Pipeline.EnrichConcurrency,
		"pipeline.rate_concurrency":      c.Pipeline.RateConcurrency,
		"pipeline.calibration_threshold": c.Pipeline.CalibrationThreshold,
		"llm.timeout_seconds":            c.LLM.TimeoutSeconds,
		"source.max_results":             c.Source.MaxResults,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, value)
		}
	}
	return nil
}
