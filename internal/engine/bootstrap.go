package engine

import (
	"fmt"

	"wordsmith/internal/monitor"
	"wordsmith/internal/pipeline"
	"wordsmith/internal/transform"
	"wordsmith/internal/transport"
)

// Bootstrap wires the engine. client is used by the flow's http remote; mon
// drives the health endpoint.
func Bootstrap(cfg Config, client transform.Transformer, mon *monitor.Monitor) (*Engine, error) {
	var flow Flow
	if cfg.PipelineYml != "" {
		f, err := pipeline.Compile(cfg.PipelineYml, client)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		flow = f
	}
	return bootstrap(cfg, mon, flow)
}

func bootstrap(cfg Config, mon *monitor.Monitor, flow Flow) (*Engine, error) {
	srv, err := transport.StartServer(cfg.GRPCPort)
	if err != nil {
		if flow != nil {
			_ = flow.Close()
		}
		return nil, fmt.Errorf("transport: %w", err)
	}
	mon.Subscribe(srv.SetBackend)

	return &Engine{cfg: cfg, transport: srv, monitor: mon, flow: flow}, nil
}
