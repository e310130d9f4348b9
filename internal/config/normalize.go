package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSource()
	c.normalizeLLM()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSource() {
	c.Source.Name = strings.TrimSpace(c.Source.Name)
	if c.Source.Name == "" {
		c.Source.Name = defaultSourceName
	}
	c.Source.SearchPrompt = strings.TrimSpace(c.Source.SearchPrompt)
	if c.Source.MaxResults <= 0 {
		c.Source.MaxResults = defaultSourceMaxResults
	}
}

func (c *Config) normalizeLLM() {
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("SCOUT_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.DiscoveryModel = strings.TrimSpace(c.LLM.DiscoveryModel)
	if c.LLM.DiscoveryModel == "" {
		c.LLM.DiscoveryModel = defaultLLMDiscoveryModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.HydrateConcurrency <= 0 {
		c.Pipeline.HydrateConcurrency = defaultHydrateConcurrency
	}
	if c.Pipeline.EnrichConcurrency <= 0 {
		c.Pipeline.EnrichConcurrency = defaultEnrichConcurrency
	}
	if c.Pipeline.RateConcurrency <= 0 {
		c.Pipeline.RateConcurrency = defaultRateConcurrency
	}
	if c.Pipeline.CalibrationThreshold <= 0 {
		c.Pipeline.CalibrationThreshold = defaultCalibrationThreshold
	}
	c.Pipeline.EnrichmentPrompt = strings.TrimSpace(c.Pipeline.EnrichmentPrompt)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
