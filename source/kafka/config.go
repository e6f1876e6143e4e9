package kafka

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type CommitMode string

const (
	CommitAuto CommitMode = "auto" // commit once the job is emitted
	CommitE2E  CommitMode = "e2e"  // commit once every sink acked
)

const EnvPrefix = "WORDSMITH_KAFKA__"

type BackPressureCfg struct {
	Capacity int64         `koanf:"capacity"`       // max jobs in flight
	CheckInt time.Duration `koanf:"check_interval"` // refill tick
}

type CheckpointCfg struct {
	CommitInt time.Duration `koanf:"commit_interval"` // flush cadence
}

type Config struct {
	Brokers   []string `koanf:"brokers"`
	Topics    []string `koanf:"topics"`
	GroupID   string   `koanf:"group_id"`
	StartFrom string   `koanf:"start_from"` // oldest|newest (default newest)
	Version   string   `koanf:"version"`
	TLSEn     bool     `koanf:"tls_enabled"`
	SASLUser  string   `koanf:"sasl_user"`
	SASLPass  string   `koanf:"sasl_pass"`

	CommitMode   CommitMode      `koanf:"commit_mode"` // auto|e2e
	BackPressure BackPressureCfg `koanf:"backpressure"`
	Checkpoint   CheckpointCfg   `koanf:"checkpoint"`
}

// LoadConfig merges YAML (if present) with env vars
// (prefix WORDSMITH_KAFKA__, nesting delimiter "__").
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	if sv := k.String("schema_version"); sv != "" && sv != "v1" {
		return Config{}, fmt.Errorf("kafka schema_version %q not supported (want v1)", sv)
	}

	// WORDSMITH_KAFKA__GROUP_ID -> group_id, WORDSMITH_KAFKA__BACKPRESSURE__CAPACITY -> backpressure.capacity
	_ = k.Load(env.Provider(EnvPrefix, ".", envKey), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, cfg.validate()
}

func envKey(s string) string {
	return lowerDelims(s[len(EnvPrefix):])
}

func lowerDelims(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if i+1 < len(s) && s[i] == '_' && s[i+1] == '_' {
			out = append(out, '.')
			i++
			continue
		}
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

func applyDefaults(c *Config) {
	if c.BackPressure.Capacity == 0 {
		c.BackPressure.Capacity = 256
	}
	if c.BackPressure.CheckInt == 0 {
		c.BackPressure.CheckInt = 100 * time.Millisecond
	}
	if c.Checkpoint.CommitInt == 0 {
		c.Checkpoint.CommitInt = 5 * time.Second
	}
	if c.CommitMode != CommitAuto && c.CommitMode != CommitE2E {
		c.CommitMode = CommitAuto
	}
	if c.StartFrom == "" {
		c.StartFrom = "newest"
	}
	if c.Version == "" {
		c.Version = "2.8.0"
	}
	if c.GroupID == "" {
		c.GroupID = "wordsmith"
	}
}

func (c Config) validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("kafka: at least one broker is required")
	}
	if len(c.Topics) == 0 {
		return errors.New("kafka: at least one topic is required")
	}
	return nil
}
