package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[source]
search_prompt = "find listings"
`)
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected existing config at %s, got %s exists=%v", path, resolved, exists)
	}
	if cfg.Source.Name != defaultSourceName {
		t.Errorf("source name default: got %q", cfg.Source.Name)
	}
	if cfg.Pipeline.HydrateConcurrency != defaultHydrateConcurrency ||
		cfg.Pipeline.EnrichConcurrency != defaultEnrichConcurrency ||
		cfg.Pipeline.RateConcurrency != defaultRateConcurrency {
		t.Errorf("unexpected concurrency defaults: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.CalibrationThreshold != defaultCalibrationThreshold {
		t.Errorf("calibration threshold default: got %d", cfg.Pipeline.CalibrationThreshold)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Errorf("logging defaults: %+v", cfg.Logging)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Errorf("data dir not expanded: %q", cfg.Paths.DataDir)
	}
}

func TestLoadOverrides(t *testing.T) {
	base := t.TempDir()
	path := writeConfig(t, `
[paths]
data_dir = "`+base+`/data"

[source]
name = "rentals"
search_prompt = "find listings"
max_results = 5

[pipeline]
rate_concurrency = 2
calibration_threshold = 3

[logging]
format = "json"
level = "debug"
`)
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.Name != "rentals" || cfg.Source.MaxResults != 5 {
		t.Errorf("source overrides not applied: %+v", cfg.Source)
	}
	if cfg.Pipeline.RateConcurrency != 2 || cfg.Pipeline.CalibrationThreshold != 3 {
		t.Errorf("pipeline overrides not applied: %+v", cfg.Pipeline)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Errorf("logging overrides not applied: %+v", cfg.Logging)
	}
	if cfg.DatabasePath() != filepath.Join(base, "data", "scout.db") {
		t.Errorf("unexpected database path %q", cfg.DatabasePath())
	}
}

func TestLoadRequiresSearchPrompt(t *testing.T) {
	path := writeConfig(t, `
[source]
name = "rentals"
`)
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for missing search prompt")
	} else if !strings.Contains(err.Error(), "search_prompt") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsBadLogging(t *testing.T) {
	path := writeConfig(t, `
[source]
search_prompt = "find listings"

[logging]
format = "xml"
`)
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}

func TestAPIKeyEnvFallback(t *testing.T) {
	t.Setenv("SCOUT_LLM_API_KEY", "sk-test")
	path := writeConfig(t, `
[source]
search_prompt = "find listings"
`)
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Fatalf("expected env api key, got %q", cfg.LLM.APIKey)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected error for existing file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "search_prompt") {
		t.Fatal("sample config missing search_prompt key")
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("directory %s not created: %v", dir, err)
		}
	}
}
