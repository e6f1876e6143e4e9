// Package spec is the schema of the batch pipeline YAML file.
package spec

import (
	kafkasink "wordsmith/sink/kafka"
	"wordsmith/sink/stdout"
)

type SinkConfigs struct {
	Kafka  kafkasink.Config `yaml:"kafka"`
	Stdout stdout.Config    `yaml:"stdout"`
}

// RemoteSpec selects how steps are executed: "http" calls the service at
// the configured base URL, "local" uses the built-in offline rewrites.
type RemoteSpec struct {
	Kind         string `yaml:"kind"`
	Instructions string `yaml:"instructions"`
}

type File struct {
	SchemaVersion string `yaml:"schema_version"`

	Source struct {
		Kind   string `yaml:"kind"`
		Driver string `yaml:"driver"`
		Config string `yaml:"config"`
	} `yaml:"source"`

	Remote RemoteSpec `yaml:"remote"`

	// Options applied, in this order, to jobs that carry none.
	DefaultOptions []string `yaml:"default_options"`

	Sinks       []string    `yaml:"sinks"`
	SinkConfigs SinkConfigs `yaml:"sink_configs"`
}
