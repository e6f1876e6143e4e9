package kafka

import (
	"context"
	"sync"
	"time"
)

// Tracker caps the number of consumed-but-unsettled records and tells the
// driver when an offset commit is due.
type Tracker struct {
	limit int64
	every time.Duration
	now   func() time.Time

	mu       sync.Mutex
	cond     *sync.Cond
	pending  int64
	lastSync time.Time
}

func NewTracker(limit int64, commitEvery time.Duration) *Tracker {
	if limit < 1 {
		limit = 1
	}
	t := &Tracker{limit: limit, every: commitEvery, now: time.Now}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// Track reserves a slot for one record, blocking while the tracker is full.
// The returned resolve must be called exactly once when the record settles;
// it reports whether a commit is due.
func (t *Tracker) Track(ctx context.Context) (resolve func() bool, err error) {
	stop := context.AfterFunc(ctx, func() {
		t.mu.Lock()
		t.cond.Broadcast()
		t.mu.Unlock()
	})
	defer stop()

	t.mu.Lock()
	for t.pending >= t.limit && ctx.Err() == nil {
		t.cond.Wait()
	}
	if err := ctx.Err(); err != nil {
		t.mu.Unlock()
		return nil, err
	}
	t.pending++
	t.mu.Unlock()

	var once sync.Once
	return func() bool {
		due := false
		once.Do(func() { due = t.settle() })
		return due
	}, nil
}

func (t *Tracker) settle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending--
	t.cond.Broadcast()
	now := t.now()
	if now.Sub(t.lastSync) >= t.every {
		t.lastSync = now
		return true
	}
	return false
}

func (t *Tracker) Pending() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}
