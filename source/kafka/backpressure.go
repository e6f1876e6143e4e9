package kafka

import (
	"context"
	"sync"
	"time"
)

// Controller is a token pool bounding how many consumed jobs may be in flight.
// Tokens come back through Release (one per settled job) and a slow refill
// tick that keeps a stuck sink from stalling the consumer forever.
type Controller struct {
	capacity int64
	refill   int64

	mu     sync.Mutex
	cond   *sync.Cond
	tokens int64
	closed bool
	stop   chan struct{}
}

func NewController(capacity, refill int64, tick time.Duration) *Controller {
	if capacity < 1 {
		capacity = 1
	}
	c := &Controller{capacity: capacity, refill: refill, tokens: capacity, stop: make(chan struct{})}
	c.cond = sync.NewCond(&c.mu)
	if refill > 0 && tick > 0 {
		go c.refillLoop(tick)
	}
	return c
}

func (c *Controller) refillLoop(tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
			c.Release(c.refill)
		}
	}
}

// Acquire blocks until a token is free, the controller closes or ctx ends.
func (c *Controller) Acquire(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	for c.tokens == 0 && !c.closed && ctx.Err() == nil {
		c.cond.Wait()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.closed {
		return context.Canceled
	}
	c.tokens--
	return nil
}

func (c *Controller) TryAcquire(n int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.tokens < n {
		return false
	}
	c.tokens -= n
	return true
}

func (c *Controller) Release(n int64) {
	c.mu.Lock()
	c.tokens = min(c.tokens+n, c.capacity)
	c.mu.Unlock()
	c.cond.Broadcast()
}

// Available is the number of free tokens.
func (c *Controller) Available() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *Controller) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.stop)
	}
	c.mu.Unlock()
	c.cond.Broadcast()
}
