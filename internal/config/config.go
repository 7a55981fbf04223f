// Package config loads recondor's optional YAML configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/recondor/recondor/internal/engine"
)

// DefaultPath is consulted when no --config flag is given.
const DefaultPath = "recondor.yaml"

// Config holds server and scan defaults. Zero values fall back to built-in
// defaults so a partial file is fine.
type Config struct {
	// Listen is the API server bind address.
	Listen string `yaml:"listen"`

	// Defaults seeds scan options when a request omits them.
	Defaults engine.Options `yaml:"defaults"`

	// Tools overrides external binary names/paths per module identifier
	// (waf, port, dir).
	Tools map[string]string `yaml:"tools"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:   ":8000",
		Defaults: engine.DefaultOptions(),
	}
}

// Load reads a YAML config file. A missing file at the default path is not
// an error; an explicitly requested file must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8000"
	}

	// Environment wins over file for the bind address.
	if addr := os.Getenv("RECONDOR_LISTEN"); addr != "" {
		cfg.Listen = addr
	}
	return cfg, nil
}
