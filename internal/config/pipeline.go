package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"wordsmith/internal/catalog"
	"wordsmith/internal/spec"
)

const SupportedSchema = "v1"

// LoadPipelineSpec parses a pipeline YAML, validates schema_version and the
// default options, and returns the parsed file plus an absolute path to the source
// config (empty when unset).
func LoadPipelineSpec(path string) (spec.File, string, error) {
	var cfg spec.File
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, "", err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, "", fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SupportedSchema
	}
	if cfg.SchemaVersion != SupportedSchema {
		return cfg, "", fmt.Errorf("pipeline schema_version %q not supported (want %q)", cfg.SchemaVersion, SupportedSchema)
	}
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = "kafka"
	}
	if cfg.Remote.Kind == "" {
		cfg.Remote.Kind = "http"
	}
	if cfg.Remote.Kind != "http" && cfg.Remote.Kind != "local" {
		return cfg, "", fmt.Errorf("pipeline remote kind %q not supported (want http or local)", cfg.Remote.Kind)
	}
	for _, id := range cfg.DefaultOptions {
		if _, ok := catalog.Lookup(id); !ok {
			return cfg, "", fmt.Errorf("pipeline default option %q is unknown (known: %v)", id, catalog.IDs())
		}
	}
	if len(cfg.Sinks) == 0 {
		cfg.Sinks = []string{"stdout"}
	}

	confPath := cfg.Source.Config
	if confPath != "" && !filepath.IsAbs(confPath) {
		confPath = filepath.Join(filepath.Dir(path), confPath)
	}
	if confPath != "" {
		if confPath, err = filepath.Abs(confPath); err != nil {
			return cfg, "", err
		}
	}
	return cfg, confPath, nil
}
