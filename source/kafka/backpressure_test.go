package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestController_TryAcquireAndRelease(t *testing.T) {
	defer goleak.VerifyNone(t)
	c := NewController(2, 0, 0)
	defer c.Close()

	assert.True(t, c.TryAcquire(1))
	assert.True(t, c.TryAcquire(1))
	assert.False(t, c.TryAcquire(1))

	c.Release(5)
	assert.Equal(t, int64(2), c.Available(), "release never exceeds capacity")
}

func TestController_AcquireHonoursContext(t *testing.T) {
	defer goleak.VerifyNone(t)
	c := NewController(1, 0, 0)
	defer c.Close()
	require.NoError(t, c.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Acquire(ctx), context.DeadlineExceeded)
}

func TestController_AcquireWakesOnRelease(t *testing.T) {
	defer goleak.VerifyNone(t)
	c := NewController(1, 0, 0)
	defer c.Close()
	require.True(t, c.TryAcquire(1))

	done := make(chan error, 1)
	go func() { done <- c.Acquire(context.Background()) }()

	c.Release(1)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not wake up")
	}
}

func TestController_RefillTick(t *testing.T) {
	defer goleak.VerifyNone(t)
	c := NewController(3, 1, 5*time.Millisecond)
	require.True(t, c.TryAcquire(3))

	assert.Eventually(t, func() bool { return c.Available() == 3 }, time.Second, 5*time.Millisecond)
	c.Close()
	assert.False(t, c.TryAcquire(1), "closed controller hands out nothing")
}

func TestTracker_BlocksAtLimit(t *testing.T) {
	tr := NewTracker(1, 0)
	resolve, err := tr.Track(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = tr.Track(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.True(t, resolve(), "zero interval commits on every settle")
	assert.False(t, resolve(), "resolve is idempotent")
	assert.Equal(t, int64(0), tr.Pending())

	_, err = tr.Track(context.Background())
	assert.NoError(t, err)
}

func TestTracker_CommitCadence(t *testing.T) {
	tr := NewTracker(10, time.Minute)
	now := time.Unix(1000, 0)
	tr.now = func() time.Time { return now }

	due := func() bool {
		r, err := tr.Track(context.Background())
		require.NoError(t, err)
		return r()
	}
	assert.True(t, due(), "first settle commits")
	assert.False(t, due())
	now = now.Add(time.Minute)
	assert.True(t, due())
}
