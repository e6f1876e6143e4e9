package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadPipelineSpec_ResolvesRelativeSourceConfigAndSchema(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pipeline.yml", `schema_version: v1
source:
  kind: kafka
  driver: sarama
  config: kafka_source.yml
default_options: [grammar, formal]
sinks: [stdout]
sink_configs:
  stdout:
    format: json
    ack_batch_size: 8
`)
	writeFile(t, dir, "kafka_source.yml", "schema_version: v1\n")

	cfg, abs, err := LoadPipelineSpec(path)
	if err != nil {
		t.Fatalf("LoadPipelineSpec: %v", err)
	}
	if cfg.SchemaVersion != SupportedSchema {
		t.Fatalf("want schema %s, got %s", SupportedSchema, cfg.SchemaVersion)
	}
	if abs == "" || !filepath.IsAbs(abs) {
		t.Fatalf("want absolute kafka config path, got %q", abs)
	}
	if got := cfg.DefaultOptions; len(got) != 2 || got[0] != "grammar" || got[1] != "formal" {
		t.Fatalf("default options = %v", got)
	}
	if cfg.Remote.Kind != "http" {
		t.Fatalf("remote kind defaults to http, got %q", cfg.Remote.Kind)
	}
	if cfg.SinkConfigs.Stdout.Format != "json" || cfg.SinkConfigs.Stdout.BatchSize != 8 {
		t.Fatalf("stdout sink config not decoded: %+v", cfg.SinkConfigs.Stdout)
	}
}

func TestLoadPipelineSpec_Defaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pipeline.yml", "source: { driver: sarama }\n")

	cfg, abs, err := LoadPipelineSpec(path)
	if err != nil {
		t.Fatalf("LoadPipelineSpec: %v", err)
	}
	if abs != "" {
		t.Fatalf("no source config means no path, got %q", abs)
	}
	if cfg.Source.Kind != "kafka" || len(cfg.Sinks) != 1 || cfg.Sinks[0] != "stdout" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadPipelineSpec_Rejects(t *testing.T) {
	cases := map[string]string{
		"schema":  "schema_version: v999\nsinks: [stdout]\n",
		"option":  "default_options: [sarcastic]\n",
		"remote":  "remote: { kind: grpc }\n",
		"garbage": "sinks: [stdout\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "pipeline.yml", body)
			if _, _, err := LoadPipelineSpec(path); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
