// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Corpus   CorpusConfig   `toml:"corpus"`
	Practice PracticeConfig `toml:"practice"`
	Learning LearningConfig `toml:"learning"`
	Skip     SkipConfig     `toml:"skip"`
}

// CorpusConfig maps training corpus settings.
type CorpusConfig struct {
	URL     *string `toml:"url"`
	Path    *string `toml:"path"`
	Charset *string `toml:"charset"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	LineLength *int `toml:"line-length"`
}

// LearningConfig maps exploration and value-update settings.
type LearningConfig struct {
	ExplorationLow  *float64 `toml:"exploration-low"`
	ExplorationHigh *float64 `toml:"exploration-high"`
	Rounds          *int     `toml:"rounds"`
	LearningRate    *float64 `toml:"learning-rate"`
	Discount        *float64 `toml:"discount"`
	Seed            *int64   `toml:"seed"`
}

// SkipConfig maps typo skip-recovery settings.
type SkipConfig struct {
	Enabled *bool `toml:"enabled"`
	Window  *int  `toml:"window"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
