package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"wordsmith/internal/api"
	"wordsmith/internal/monitor"
	"wordsmith/internal/transport"
)

type upProber struct{}

func (upProber) Health(context.Context) (api.Health, bool, error) {
	return api.Health{Status: "healthy"}, true, nil
}

type blockingFlow struct {
	err    error
	closed chan struct{}
}

func (f *blockingFlow) Run(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *blockingFlow) Close() error {
	close(f.closed)
	return nil
}

func TestEngine_HealthFollowsMonitorAndStopsCleanly(t *testing.T) {
	mon := monitor.New(upProber{}, time.Hour)
	flow := &blockingFlow{closed: make(chan struct{})}
	e, err := bootstrap(Config{GRPCPort: 0, MetricsPort: 0}, mon, flow)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	assert.Eventually(t, func() bool {
		pctx, pcancel := context.WithTimeout(context.Background(), time.Second)
		defer pcancel()
		st, err := transport.Probe(pctx, e.transport.Addr(), transport.Service)
		return err == nil && st == healthpb.HealthCheckResponse_SERVING
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
	select {
	case <-flow.closed:
	default:
		t.Fatal("flow was not closed")
	}
}

func TestEngine_FlowFailureStopsEverything(t *testing.T) {
	boom := errors.New("broker gone")
	mon := monitor.New(upProber{}, time.Hour)
	flow := &blockingFlow{err: boom, closed: make(chan struct{})}
	e, err := bootstrap(Config{}, mon, flow)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestBootstrap_BadPipeline(t *testing.T) {
	mon := monitor.New(upProber{}, time.Hour)
	_, err := Bootstrap(Config{PipelineYml: "does-not-exist.yml"}, nil, mon)
	assert.ErrorContains(t, err, "pipeline")
}
