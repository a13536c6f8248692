// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "agora.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// Valid weighting scheme names accepted in config
const (
	WeightingLinear     = "linear"
	WeightingQuadratic  = "quadratic"
	WeightingReputation = "reputation"
)

type Config struct {
	DatabasePath    string `yaml:"databasePath"    split_words:"true"`
	BindAddr        string `yaml:"bindAddr"        split_words:"true"`
	ShutdownTimeout string `yaml:"shutdownTimeout" split_words:"true"`
	// PowersFile is a YAML file mapping accounts to their base voting power
	PowersFile  string `yaml:"powersFile" split_words:"true"`
	MetricsPort uint   `yaml:"metricsPort" split_words:"true"`
	// Governance parameters frozen into new proposals
	Quorum              uint64   `yaml:"quorum"`
	ThresholdPercent    uint64   `yaml:"thresholdPercent"    split_words:"true"`
	ExecutionDelay      string   `yaml:"executionDelay"      split_words:"true"`
	Weighting           string   `yaml:"weighting"`
	CountAbstainInRatio bool     `yaml:"countAbstainInRatio" split_words:"true"`
	Authorities         []string `yaml:"authorities"`
}

var globalConfig = &Config{
	DatabasePath:     ".agora",
	BindAddr:         "0.0.0.0",
	MetricsPort:      12798,
	ShutdownTimeout:  DefaultShutdownTimeout,
	Quorum:           0,
	ThresholdPercent: 50,
	ExecutionDelay:   "1h",
	Weighting:        WeightingLinear,
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.agora/agora.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".agora", "agora.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/agora/agora.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/agora/agora.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Process environment variables
	err := envconfig.Process("agora", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}

	switch globalConfig.Weighting {
	case WeightingLinear, WeightingQuadratic, WeightingReputation:
	default:
		return nil, fmt.Errorf(
			"invalid weighting: %q (must be 'linear', 'quadratic', or 'reputation')",
			globalConfig.Weighting,
		)
	}
	if globalConfig.ThresholdPercent == 0 ||
		globalConfig.ThresholdPercent > 100 {
		return nil, fmt.Errorf(
			"invalid thresholdPercent: %d (must be 1-100)",
			globalConfig.ThresholdPercent,
		)
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}

// LoadPowers reads the voting power map from the configured powers file. A
// missing path yields an empty map.
func LoadPowers(path string) (map[string]uint64, error) {
	if path == "" {
		return map[string]uint64{}, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading powers file: %w", err)
	}
	powers := map[string]uint64{}
	if err := yaml.Unmarshal(buf, &powers); err != nil {
		return nil, fmt.Errorf("error parsing powers file: %w", err)
	}
	return powers, nil
}
