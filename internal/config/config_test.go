package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func resetGlobalConfig() {
	globalConfig = &Config{
		DatabasePath:     ".agora",
		BindAddr:         "0.0.0.0",
		MetricsPort:      12798,
		ShutdownTimeout:  DefaultShutdownTimeout,
		Quorum:           0,
		ThresholdPercent: 50,
		ExecutionDelay:   "1h",
		Weighting:        WeightingLinear,
	}
}

func TestLoad_CompareFullStruct(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
databasePath: "/var/lib/agora"
bindAddr: "127.0.0.1"
metricsPort: 8088
shutdownTimeout: "10s"
powersFile: "powers.yaml"
quorum: 1000
thresholdPercent: 66
executionDelay: "2h"
weighting: "quadratic"
countAbstainInRatio: true
authorities:
  - council
  - steward
`

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-agora.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	expected := &Config{
		DatabasePath:        "/var/lib/agora",
		BindAddr:            "127.0.0.1",
		MetricsPort:         8088,
		ShutdownTimeout:     "10s",
		PowersFile:          "powers.yaml",
		Quorum:              1000,
		ThresholdPercent:    66,
		ExecutionDelay:      "2h",
		Weighting:           WeightingQuadratic,
		CountAbstainInRatio: true,
		Authorities:         []string{"council", "steward"},
	}

	actual, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Errorf(
			"Loaded config does not match expected.\nActual: %+v\nExpected: %+v",
			actual,
			expected,
		)
	}
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	resetGlobalConfig()

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	expected := &Config{
		DatabasePath:     ".agora",
		BindAddr:         "0.0.0.0",
		MetricsPort:      12798,
		ShutdownTimeout:  DefaultShutdownTimeout,
		Quorum:           0,
		ThresholdPercent: 50,
		ExecutionDelay:   "1h",
		Weighting:        WeightingLinear,
	}

	if !reflect.DeepEqual(cfg, expected) {
		t.Errorf(
			"config mismatch without file:\nExpected: %+v\nGot:      %+v",
			expected,
			cfg,
		)
	}
}

func TestLoad_InvalidWeighting(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
weighting: "exponential"
`
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-bad-weighting.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := LoadConfig(tmpFile); err == nil {
		t.Errorf("expected error for invalid weighting, got nil")
	}
}

func TestLoad_InvalidThreshold(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
thresholdPercent: 120
`
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-bad-threshold.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := LoadConfig(tmpFile); err == nil {
		t.Errorf("expected error for invalid threshold, got nil")
	}
}

func TestLoadPowers(t *testing.T) {
	yamlContent := `
alice: 500
bob: 300
`
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "powers.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write powers file: %v", err)
	}

	powers, err := LoadPowers(tmpFile)
	if err != nil {
		t.Fatalf("failed to load powers: %v", err)
	}
	if powers["alice"] != 500 || powers["bob"] != 300 {
		t.Errorf("unexpected powers: %+v", powers)
	}

	// Empty path yields an empty map
	powers, err = LoadPowers("")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(powers) != 0 {
		t.Errorf("expected empty powers map, got: %+v", powers)
	}
}
