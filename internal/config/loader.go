package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file, expands environment variables in it, then
// layers environment overrides and defaults on top. The API key is always
// taken from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{FormatTurns: true}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// LoadOrEnv loads the YAML file at path when path is non-empty, otherwise
// builds the config from the environment alone.
func LoadOrEnv(path string) (*Config, error) {
	if path == "" {
		return FromEnv(), nil
	}
	return Load(path)
}
