// Package engine runs the batch rewriting service: the Kafka-fed flow, the
// connectivity monitor, the gRPC health endpoint and the metrics listener.
package engine

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"wordsmith/internal/logging"
	"wordsmith/internal/monitor"
	"wordsmith/internal/telemetry"
	"wordsmith/internal/transport"
)

type Config struct {
	GRPCPort    int
	MetricsPort int
	PipelineYml string // optional; without it only health and metrics run
}

// Flow is the part of *pipeline.Flow the engine drives.
type Flow interface {
	Run(ctx context.Context) error
	Close() error
}

type Engine struct {
	cfg       Config
	transport *transport.Server
	monitor   *monitor.Monitor
	flow      Flow
}

// Run blocks until ctx is done or a component fails; the first failure
// cancels the rest.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return e.transport.Serve() })
	g.Go(func() error {
		<-ctx.Done()
		e.transport.Stop()
		return nil
	})
	g.Go(func() error { return telemetry.Expose(ctx, e.cfg.MetricsPort) })
	g.Go(func() error { return e.monitor.Run(ctx) })

	if e.flow != nil {
		g.Go(func() error {
			defer func() {
				if err := e.flow.Close(); err != nil {
					logging.L().Warn("engine: closing flow", "err", err)
				}
			}()
			err := e.flow.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	logging.L().Info("engine running", "grpc", e.transport.Addr(), "metrics_port", e.cfg.MetricsPort, "flow", e.flow != nil)
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
