package pipeline

import (
	"fmt"

	"wordsmith/internal/config"
	"wordsmith/internal/job"
	"wordsmith/internal/spec"
	"wordsmith/internal/transform"
	"wordsmith/sink"
	"wordsmith/source/kafka"
)

// Compile builds a Flow from the pipeline file at path. client serves
// "http" remotes and may be nil for "local" ones.
func Compile(path string, client transform.Transformer) (*Flow, error) {
	cfg, confPath, err := config.LoadPipelineSpec(path)
	if err != nil {
		return nil, err
	}

	remoteFor, err := remoteFactory(cfg.Remote, client)
	if err != nil {
		return nil, err
	}
	f := NewFlow(remoteFor, cfg.DefaultOptions)

	if err := addSinks(f, cfg); err != nil {
		_ = f.Close()
		return nil, err
	}

	if cfg.Source.Kind != "kafka" {
		_ = f.Close()
		return nil, fmt.Errorf("unsupported source %q", cfg.Source.Kind)
	}
	kc, err := config.LoadKafkaConfig(confPath)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	src, err := kafka.NewAdapter(cfg.Source.Driver)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := src.Configure(kc); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("source %s: %w", cfg.Source.Driver, err)
	}
	f.SetSource(src)

	if aw, ok := src.(interface{ OnAck(*job.Token) }); ok {
		f.SubscribeAck(aw.OnAck)
	}
	return f, nil
}

func remoteFactory(rs spec.RemoteSpec, client transform.Transformer) (RemoteFor, error) {
	switch rs.Kind {
	case "local":
		off := transform.NewOffline()
		return func(string) transform.Remote { return off }, nil
	case "http":
		if client == nil {
			return nil, fmt.Errorf("remote kind http needs a service client")
		}
		base := transform.NewHTTPRemote(client)
		if rs.Instructions != "" {
			instr := rs.Instructions
			base.Instructions = &instr
		}
		return func(original string) transform.Remote { return base.ForInput(original) }, nil
	}
	return nil, fmt.Errorf("unsupported remote kind %q", rs.Kind)
}

func addSinks(f *Flow, cfg spec.File) error {
	for _, name := range cfg.Sinks {
		drv, err := sink.NewAdapter(name)
		if err != nil {
			return err
		}
		switch name {
		case "stdout":
			err = drv.Configure(cfg.SinkConfigs.Stdout)
		case "kafka":
			err = drv.Configure(cfg.SinkConfigs.Kafka)
		default:
			err = fmt.Errorf("no config block for sink %q", name)
		}
		if err != nil {
			return fmt.Errorf("sink %s: %w", name, err)
		}
		f.AddSink(drv)
	}
	return nil
}
