package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads, parses, normalizes, and validates a config file. A missing
// file falls back to the built-in defaults for the known source.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, err
	}
	Normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes a single strict YAML document into a Config.
func Parse(data []byte) (Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return Config{}, fmt.Errorf("parse config: multiple YAML documents are not supported")
		}
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Normalize fills unset fields from the defaults so a sparse config only
// needs to name what differs from the known source layout.
func Normalize(cfg *Config) {
	defaults := Default()
	if cfg.Policy == "" {
		cfg.Policy = defaults.Policy
	}
	if cfg.Source.BaseURL == "" {
		cfg.Source.BaseURL = defaults.Source.BaseURL
	}
	if cfg.Source.IndexSlug == "" {
		cfg.Source.IndexSlug = defaults.Source.IndexSlug
	}
	if len(cfg.Source.Chapters) == 0 {
		cfg.Source.Chapters = defaults.Source.Chapters
	}
	if cfg.Source.Selectors == (Selectors{}) {
		cfg.Source.Selectors = defaults.Source.Selectors
	}
	if cfg.Source.Retry.MaxAttempts == 0 {
		cfg.Source.Retry.MaxAttempts = defaults.Source.Retry.MaxAttempts
	}
	if cfg.Source.Retry.BaseDelayMs == 0 {
		cfg.Source.Retry.BaseDelayMs = defaults.Source.Retry.BaseDelayMs
	}
	if cfg.Source.Retry.MaxDelayMs == 0 {
		cfg.Source.Retry.MaxDelayMs = defaults.Source.Retry.MaxDelayMs
	}
	if cfg.Source.TimeoutSeconds == 0 {
		cfg.Source.TimeoutSeconds = defaults.Source.TimeoutSeconds
	}
	if cfg.Source.MinIntervalMs == 0 {
		cfg.Source.MinIntervalMs = defaults.Source.MinIntervalMs
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaults.Storage.Path
	}
	if cfg.Storage.ImageDir == "" {
		cfg.Storage.ImageDir = defaults.Storage.ImageDir
	}
}
