// Package config loads the client configuration, the batch pipeline file
// and the Kafka source settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"wordsmith/internal/api"
)

const EnvPrefix = "WORDSMITH__"

type Config struct {
	API struct {
		BaseURL string        `koanf:"base_url"`
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"api"`
	Monitor struct {
		Interval time.Duration `koanf:"interval"`
	} `koanf:"monitor"`
	Identity struct {
		Path string `koanf:"path"`
	} `koanf:"identity"`
	Log struct {
		Level string `koanf:"level"`
		JSON  bool   `koanf:"json"`
	} `koanf:"log"`
	Metrics struct {
		Port int `koanf:"port"`
	} `koanf:"metrics"`
	GRPC struct {
		Port int `koanf:"port"`
	} `koanf:"grpc"`
	Pipeline struct {
		File string `koanf:"file"`
	} `koanf:"pipeline"`
}

// Dir is the per-user directory holding config.yaml and the identity file.
func Dir() string {
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, "wordsmith")
	}
	return ".wordsmith"
}

func DefaultPath() string { return filepath.Join(Dir(), "config.yaml") }

// Load reads DefaultPath; a missing file is not an error.
func Load() (Config, error) { return LoadFrom(DefaultPath()) }

// LoadFrom merges the YAML file at path (if present) with WORDSMITH__ env
// vars, e.g. WORDSMITH__API__BASE_URL -> api.base_url.
func LoadFrom(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if sv := k.String("schema_version"); sv != "" && sv != SupportedSchema {
		return Config{}, fmt.Errorf("config schema_version %q not supported (want %q)", sv, SupportedSchema)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, cfg.validate()
}

func applyDefaults(c *Config) {
	if c.API.BaseURL == "" {
		c.API.BaseURL = api.DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = api.DefaultTimeout
	}
	if c.Monitor.Interval == 0 {
		c.Monitor.Interval = 10 * time.Second
	}
	if c.Identity.Path == "" {
		c.Identity.Path = filepath.Join(Dir(), "user_id")
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Metrics.Port == 0 {
		c.Metrics.Port = 9100
	}
	if c.GRPC.Port == 0 {
		c.GRPC.Port = 7070
	}
	if c.Pipeline.File == "" {
		c.Pipeline.File = "pipeline.yml"
	}
}

func (c Config) validate() error {
	switch {
	case c.API.Timeout < 0:
		return errors.New("api.timeout must be positive")
	case c.Monitor.Interval < 0:
		return errors.New("monitor.interval must be positive")
	case c.Metrics.Port < 0 || c.Metrics.Port > 65535:
		return fmt.Errorf("metrics.port %d out of range", c.Metrics.Port)
	case c.GRPC.Port < 0 || c.GRPC.Port > 65535:
		return fmt.Errorf("grpc.port %d out of range", c.GRPC.Port)
	}
	return nil
}
