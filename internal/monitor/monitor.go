// Package monitor tracks whether the transformation service is reachable.
package monitor

import (
	"context"
	"sync"
	"time"

	"wordsmith/internal/api"
	"wordsmith/internal/logging"
	"wordsmith/internal/telemetry"
)

type Status int

const (
	Checking Status = iota
	Connected
	Disconnected
)

func (s Status) String() string {
	switch s {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "checking"
	}
}

// Prober is satisfied by *api.Client.
type Prober interface {
	Health(ctx context.Context) (api.Health, bool, error)
}

const DefaultInterval = 10 * time.Second

// Monitor probes once on start, then on every tick while not connected.
// A connected service is not probed again until Recheck is called.
type Monitor struct {
	prober   Prober
	interval time.Duration
	recheck  chan struct{}

	mu     sync.Mutex
	status Status
	subs   []func(Status)
}

func New(p Prober, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{prober: p, interval: interval, recheck: make(chan struct{}, 1)}
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Subscribe registers fn for status changes. fn runs on the monitor's
// goroutine and must not block.
func (m *Monitor) Subscribe(fn func(Status)) {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	m.mu.Unlock()
}

// Recheck asks Run for a probe regardless of the current status.
func (m *Monitor) Recheck() {
	select {
	case m.recheck <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	m.probe(ctx)

	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.recheck:
			m.probe(ctx)
		case <-t.C:
			if m.Status() != Connected {
				m.probe(ctx)
			}
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	h, ok, err := m.prober.Health(ctx)
	if ctx.Err() != nil {
		return
	}
	next := Disconnected
	if ok {
		next = Connected
		telemetry.BackendUp.Set(1)
		telemetry.BackendChecks.WithLabelValues("up").Inc()
		logging.L().Debug("backend reachable", "status", h.Status, "version", h.Version)
	} else {
		telemetry.BackendUp.Set(0)
		telemetry.BackendChecks.WithLabelValues("down").Inc()
		logging.L().Debug("backend unreachable", "err", err)
	}
	m.set(next)
}

func (m *Monitor) set(s Status) {
	m.mu.Lock()
	if m.status == s {
		m.mu.Unlock()
		return
	}
	prev := m.status
	m.status = s
	subs := append([]func(Status){}, m.subs...)
	m.mu.Unlock()

	logging.L().Info("backend status changed", "from", prev.String(), "to", s.String())
	for _, fn := range subs {
		fn(s)
	}
}
