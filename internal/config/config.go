// Package config provides the sitetint configuration record, its defaults,
// file loading and validation.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/sitetint/internal/colour"
	"github.com/jmylchreest/sitetint/internal/sites"
)

// DevOptions holds developer switches.
type DevOptions struct {
	EnableLogging    bool `json:"enableLogging" yaml:"enableLogging"`
	UsedCachedColors bool `json:"usedCachedColors" yaml:"usedCachedColors"`
}

// Config is the user configuration.
type Config struct {
	Enabled           bool       `json:"enabled" yaml:"enabled"`
	DefaultColor      string     `json:"defaultColor" yaml:"defaultColor"`
	ContrastActive    float64    `json:"contrastActive" yaml:"contrastActive"`
	ContrastInactive  float64    `json:"contrastInactive" yaml:"contrastInactive"`
	ContrastSearchBar float64    `json:"contrastSearchBar" yaml:"contrastSearchBar"`
	UseCustomColors   bool       `json:"useCustomColors" yaml:"useCustomColors"`
	CustomColors      sites.List `json:"customColors" yaml:"customColors"`
	DevOptions        DevOptions `json:"devOptions" yaml:"devOptions"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Enabled:           true,
		DefaultColor:      "#000000ff",
		ContrastActive:    0.45,
		ContrastInactive:  0.3,
		ContrastSearchBar: 0.45,
	}
}

// DefaultColour returns the default colour in canonical form. An invalid
// value falls back to black.
func (c Config) DefaultColour() colour.Hex {
	if h, ok := colour.Normalize(c.DefaultColor, nil); ok {
		return h
	}
	// Fully transparent defaults still need a concrete colour.
	if rgb, _, err := colour.ParseHex(c.DefaultColor); err == nil {
		return rgb.Hex()
	}
	return "#000000"
}

// Validate checks ranges and colour syntax.
func (c Config) Validate() error {
	if _, _, err := colour.ParseHex(c.DefaultColor); err != nil {
		return fmt.Errorf("invalid defaultColor: %w", err)
	}
	for name, v := range map[string]float64{
		"contrastActive":    c.ContrastActive,
		"contrastInactive":  c.ContrastInactive,
		"contrastSearchBar": c.ContrastSearchBar,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %g", name, v)
		}
	}
	if err := c.CustomColors.Validate(); err != nil {
		return fmt.Errorf("invalid customColors: %w", err)
	}
	return nil
}

// Load reads a configuration file. YAML is used for .yaml and .yml files,
// JSON otherwise. Fields absent from the file keep their defaults, and a
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := Decode(path, data, &cfg); err != nil {
		return Default(), err
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Decode unmarshals data into cfg using the format implied by path.
func Decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}
	return nil
}
