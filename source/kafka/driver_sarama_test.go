package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordsmith/internal/job"
)

type fakeSession struct {
	ctx context.Context

	mu      sync.Mutex
	marked  []int64
	commits int
}

func (s *fakeSession) Claims() map[string][]int32                      { return nil }
func (s *fakeSession) MemberID() string                                { return "m" }
func (s *fakeSession) GenerationID() int32                             { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)         {}
func (s *fakeSession) ResetOffset(string, int32, int64, string)        {}
func (s *fakeSession) Context() context.Context                        { return s.ctx }
func (s *fakeSession) MarkMessage(m *sarama.ConsumerMessage, _ string) { s.mark(m.Offset) }
func (s *fakeSession) Commit() {
	s.mu.Lock()
	s.commits++
	s.mu.Unlock()
}

func (s *fakeSession) mark(off int64) {
	s.mu.Lock()
	s.marked = append(s.marked, off)
	s.mu.Unlock()
}

func (s *fakeSession) Marked() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.marked...)
}

func newTestDriver(t *testing.T, mode CommitMode) *SaramaDriver {
	t.Helper()
	d := &SaramaDriver{}
	d.init(Config{
		CommitMode:   mode,
		BackPressure: BackPressureCfg{Capacity: 4},
		Checkpoint:   CheckpointCfg{CommitInt: time.Hour},
	})
	t.Cleanup(d.bp.Close)
	return d
}

func TestSaramaDriver_OnAckEnqueue(t *testing.T) {
	d := &SaramaDriver{ackCh: make(chan job.Token, 1)}

	d.OnAck(&job.Token{Topic: "t", Partition: 1, Offset: 42})
	d.OnAck(nil)

	assert.Equal(t, job.Token{Topic: "t", Partition: 1, Offset: 42}, <-d.ackCh)
	assert.Empty(t, d.ackCh)
}

func TestSaramaDriver_OnAckDropsOldestWhenFull(t *testing.T) {
	d := &SaramaDriver{ackCh: make(chan job.Token, 1)}

	d.OnAck(&job.Token{Topic: "t", Offset: 1})
	d.OnAck(&job.Token{Topic: "t", Offset: 2})

	assert.Equal(t, int64(2), (<-d.ackCh).Offset)
}

func TestSaramaDriver_E2EWaitsForAck(t *testing.T) {
	d := newTestDriver(t, CommitE2E)
	sess := &fakeSession{ctx: t.Context()}
	var frames []*job.Frame
	h := &groupHandler{driver: d, emit: func(f *job.Frame) error {
		frames = append(frames, f)
		return nil
	}}

	msg := &sarama.ConsumerMessage{Topic: "jobs", Partition: 0, Offset: 7, Key: []byte("k"), Value: []byte(`{}`)}
	require.True(t, d.bp.TryAcquire(1))
	require.NoError(t, h.handle(sess, msg))

	require.Len(t, frames, 1)
	assert.Equal(t, "jobs[0]@7", frames[0].Checkpoint.String())
	assert.Empty(t, sess.Marked(), "nothing is marked before the sinks ack")
	assert.Equal(t, int64(1), d.cp.Pending())

	d.settle(*frames[0].Checkpoint)
	assert.Equal(t, []int64{7}, sess.Marked())
	assert.Equal(t, 1, sess.commits, "first settle commits")
	assert.Equal(t, int64(0), d.cp.Pending())
	assert.Equal(t, int64(4), d.bp.Available())

	d.settle(*frames[0].Checkpoint)
	assert.Equal(t, []int64{7}, sess.Marked(), "a second ack is ignored")
}

func TestSaramaDriver_AutoMarksOnEmit(t *testing.T) {
	d := newTestDriver(t, CommitAuto)
	sess := &fakeSession{ctx: t.Context()}
	h := &groupHandler{driver: d, emit: func(*job.Frame) error { return nil }}

	require.True(t, d.bp.TryAcquire(1))
	require.NoError(t, h.handle(sess, &sarama.ConsumerMessage{Topic: "jobs", Offset: 3}))

	assert.Equal(t, []int64{3}, sess.Marked())
	assert.Empty(t, d.pending)
	assert.Equal(t, int64(4), d.bp.Available())
}

func TestSaramaDriver_EmitErrorUnregisters(t *testing.T) {
	d := newTestDriver(t, CommitE2E)
	sess := &fakeSession{ctx: t.Context()}
	boom := errors.New("boom")
	h := &groupHandler{driver: d, emit: func(*job.Frame) error { return boom }}

	err := h.handle(sess, &sarama.ConsumerMessage{Topic: "jobs", Offset: 1})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, d.pending)
	assert.Equal(t, int64(0), d.cp.Pending())
	assert.Empty(t, sess.Marked())
}

func TestGroupHandler_CleanupReleasesPending(t *testing.T) {
	d := newTestDriver(t, CommitE2E)
	sess := &fakeSession{ctx: t.Context()}
	h := &groupHandler{driver: d, emit: func(*job.Frame) error { return nil }}

	for off := int64(0); off < 3; off++ {
		require.True(t, d.bp.TryAcquire(1))
		require.NoError(t, h.handle(sess, &sarama.ConsumerMessage{Topic: "jobs", Offset: off}))
	}
	assert.Equal(t, int64(1), d.bp.Available())

	require.NoError(t, h.Cleanup(sess))
	assert.Empty(t, d.pending)
	assert.Equal(t, int64(0), d.cp.Pending())
	assert.Equal(t, int64(4), d.bp.Available())
	assert.Empty(t, sess.Marked())
}

func TestNewAdapter(t *testing.T) {
	a, err := NewAdapter("")
	require.NoError(t, err)
	assert.IsType(t, &SaramaDriver{}, a)

	_, err = NewAdapter("confluent")
	assert.Error(t, err)
}

func TestToHeaderMap(t *testing.T) {
	assert.Nil(t, toHeaderMap(nil))
	got := toHeaderMap([]*sarama.RecordHeader{{Key: []byte("trace"), Value: []byte("abc")}})
	assert.Equal(t, map[string][]byte{"trace": []byte("abc")}, got)
}
