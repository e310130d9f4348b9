package config

const (
	defaultDataDir              = "~/.local/share/scout"
	defaultLogDir               = "~/.local/share/scout/logs"
	defaultSourceName           = "web"
	defaultSourceMaxResults     = 25
	defaultLLMBaseURL           = "https://api.openai.com/v1"
	defaultLLMModel             = "gpt-4o-mini"
	defaultLLMDiscoveryModel    = "gpt-4o-search-preview"
	defaultLLMTimeoutSeconds    = 120
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultHydrateConcurrency   = 5
	defaultEnrichConcurrency    = 3
	defaultRateConcurrency      = 10
	defaultCalibrationThreshold = 5
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Source: Source{
			Name:       defaultSourceName,
			MaxResults: defaultSourceMaxResults,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			DiscoveryModel: defaultLLMDiscoveryModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Pipeline: Pipeline{
			HydrateEnabled:       true,
			HydrateConcurrency:   defaultHydrateConcurrency,
			EnrichConcurrency:    defaultEnrichConcurrency,
			RateConcurrency:      defaultRateConcurrency,
			CalibrationThreshold: defaultCalibrationThreshold,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
