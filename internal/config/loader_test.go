package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	configContent := `
input:
  files:
    - data/*.gml
    - city.gml
  encoding: ISO-8859-1
  max_depth: 500

stats:
  compute_extent: true
  object_hierarchy: true
  ids: [BLDG_1, BLDG_2]
  schemas:
    - schemas/ade.xsd

output:
  json_report: false
  summary_report: out/summary.json
  format: yaml

store:
  enabled: true
  host: localhost
  user: stats
  password: secret
  database: gmlstats

logging:
  level: debug
  format: json
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify input config
	if len(cfg.Input.Files) != 2 {
		t.Errorf("expected 2 input patterns, got %d", len(cfg.Input.Files))
	}
	if cfg.Input.Encoding != "ISO-8859-1" {
		t.Errorf("expected encoding 'ISO-8859-1', got %s", cfg.Input.Encoding)
	}
	if cfg.Input.MaxDepth != 500 {
		t.Errorf("expected max_depth 500, got %d", cfg.Input.MaxDepth)
	}

	// Verify stats config
	if !cfg.Stats.ComputeExtent || !cfg.Stats.ObjectHierarchy {
		t.Error("expected compute_extent and object_hierarchy enabled")
	}
	if len(cfg.Stats.IDs) != 2 || cfg.Stats.IDs[1] != "BLDG_2" {
		t.Errorf("unexpected ids %v", cfg.Stats.IDs)
	}

	// Verify output config keeps defaults for unset keys
	if cfg.Output.JSONReport {
		t.Error("expected json_report disabled")
	}
	if cfg.Output.Suffix != "__statistics" {
		t.Errorf("expected default suffix, got %s", cfg.Output.Suffix)
	}
	if cfg.Output.Format != "yaml" {
		t.Errorf("expected format 'yaml', got %s", cfg.Output.Format)
	}

	// Verify store config
	if cfg.Store.Port != 3306 {
		t.Errorf("expected default store port 3306, got %d", cfg.Store.Port)
	}
	if cfg.Store.Database != "gmlstats" {
		t.Errorf("expected store database 'gmlstats', got %s", cfg.Store.Database)
	}

	// Verify logging config
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected logging level 'debug', got %s", cfg.Logging.Level)
	}
}

func TestLoadWithEnvVars(t *testing.T) {
	t.Setenv("TEST_STORE_HOST", "env-host")
	t.Setenv("TEST_STORE_PASS", "env-pass")
	t.Setenv("TEST_DATA_DIR", "/data")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-env.yaml")

	configContent := `
input:
  files: ["${TEST_DATA_DIR}/city.gml"]
store:
  host: ${TEST_STORE_HOST}
  password: ${TEST_STORE_PASS}
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Store.Host != "env-host" {
		t.Errorf("expected store host 'env-host', got %s", cfg.Store.Host)
	}
	if cfg.Store.Password != "env-pass" {
		t.Errorf("expected store password 'env-pass', got %s", cfg.Store.Password)
	}
	if cfg.Input.Files[0] != "/data/city.gml" {
		t.Errorf("expected expanded input path, got %s", cfg.Input.Files[0])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadOptional(t *testing.T) {
	cfg, err := LoadOptional("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Output.Suffix != "__statistics" {
		t.Errorf("expected defaults, got suffix %s", cfg.Output.Suffix)
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")

	tests := []struct {
		input    string
		expected string
	}{
		{"${TEST_VAR}", "test-value"},
		{"$TEST_VAR", "test-value"},
		{"prefix-${TEST_VAR}-suffix", "prefix-test-value-suffix"},
		{"${NONEXISTENT}", "${NONEXISTENT}"}, // Unset vars remain unchanged
		{"no-vars-here", "no-vars-here"},
	}

	for _, tt := range tests {
		result := expandEnvVar(tt.input)
		if result != tt.expected {
			t.Errorf("expandEnvVar(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Stats.Schemas = []string{"base.xsd"}

	cfg.ApplyOverrides(Overrides{
		Files:         []string{"a.gml"},
		ComputeExtent: true,
		IDs:           []string{"X"},
		Schemas:       []string{"ade.xsd"},
		NoJSONReport:  true,
		Format:        "yaml",
		LogLevel:      "debug",
	})

	if len(cfg.Input.Files) != 1 || cfg.Input.Files[0] != "a.gml" {
		t.Errorf("unexpected files %v", cfg.Input.Files)
	}
	if !cfg.Stats.ComputeExtent {
		t.Error("expected compute_extent enabled")
	}
	if len(cfg.Stats.Schemas) != 2 {
		t.Errorf("expected schemas to be appended, got %v", cfg.Stats.Schemas)
	}
	if cfg.Output.JSONReport {
		t.Error("expected json_report disabled")
	}
	if cfg.Output.Format != "yaml" {
		t.Errorf("expected format 'yaml', got %s", cfg.Output.Format)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level 'debug', got %s", cfg.Logging.Level)
	}

	// Empty overrides leave values untouched
	cfg.ApplyOverrides(Overrides{})
	if cfg.Output.Format != "yaml" || cfg.Logging.Level != "debug" {
		t.Error("empty overrides must not reset values")
	}
}
