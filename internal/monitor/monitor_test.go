package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"wordsmith/internal/api"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

type fakeProber struct {
	up    atomic.Bool
	calls atomic.Int32
}

func (f *fakeProber) Health(context.Context) (api.Health, bool, error) {
	f.calls.Add(1)
	if f.up.Load() {
		return api.Health{Status: "healthy"}, true, nil
	}
	return api.Health{}, false, errors.New("connection refused")
}

func start(t *testing.T, m *Monitor) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = m.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestMonitor_StartsCheckingThenConnects(t *testing.T) {
	p := &fakeProber{}
	p.up.Store(true)
	m := New(p, time.Hour)
	assert.Equal(t, Checking, m.Status())

	start(t, m)
	assert.Eventually(t, func() bool { return m.Status() == Connected }, time.Second, time.Millisecond)
}

func TestMonitor_RetriesWhileDisconnected(t *testing.T) {
	p := &fakeProber{}
	m := New(p, 5*time.Millisecond)

	var mu sync.Mutex
	var seen []Status
	m.Subscribe(func(s Status) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	start(t, m)
	assert.Eventually(t, func() bool { return p.calls.Load() >= 3 }, time.Second, time.Millisecond)
	assert.Equal(t, Disconnected, m.Status())

	p.up.Store(true)
	assert.Eventually(t, func() bool { return m.Status() == Connected }, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{Disconnected, Connected}, seen, "subscribers only see changes")
}

func TestMonitor_NoProbesWhileConnected(t *testing.T) {
	p := &fakeProber{}
	p.up.Store(true)
	m := New(p, 2*time.Millisecond)

	start(t, m)
	require.Eventually(t, func() bool { return m.Status() == Connected }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), p.calls.Load())

	p.up.Store(false)
	m.Recheck()
	assert.Eventually(t, func() bool { return m.Status() == Disconnected }, time.Second, time.Millisecond)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "checking", Checking.String())
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "disconnected", Disconnected.String())
}
