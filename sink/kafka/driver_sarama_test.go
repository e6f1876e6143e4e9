package kafka

import (
	"errors"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"wordsmith/internal/job"
)

func newMockDriver(t *testing.T) (*driver, *mocks.AsyncProducer) {
	t.Helper()
	var mp *mocks.AsyncProducer
	d := &driver{newProducer: func(_ []string, sc *sarama.Config) (sarama.AsyncProducer, error) {
		mp = mocks.NewAsyncProducer(t, sc)
		return mp, nil
	}}
	if err := d.Configure(Config{Brokers: []string{"b:9092"}, Topic: "out", Acks: -1}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	return d, mp
}

func TestPush_AcksAfterBrokerSuccess(t *testing.T) {
	d, mp := newMockDriver(t)
	var mu sync.Mutex
	var acked []*job.Token
	d.BindAck(func(tok *job.Token) { mu.Lock(); acked = append(acked, tok); mu.Unlock() })

	brokerDown := errors.New("broker down")
	mp.ExpectInputAndSucceed()
	mp.ExpectInputAndFail(brokerDown)

	tok1 := &job.Token{Topic: "in", Offset: 1}
	tok2 := &job.Token{Topic: "in", Offset: 2}
	if err := d.Push(&job.Outcome{JobID: "a", Checkpoint: tok1}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := d.Push(&job.Outcome{JobID: "b", Checkpoint: tok2}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := d.Close(); !errors.Is(err, brokerDown) {
		t.Fatalf("Close must report the failed write, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(acked) != 1 || acked[0] != tok1 {
		t.Fatalf("only the successful write is acked, got %v", acked)
	}
}

func TestClose_CleanAfterSuccesses(t *testing.T) {
	d, mp := newMockDriver(t)
	d.BindAck(func(*job.Token) {})
	mp.ExpectInputAndSucceed()
	if err := d.Push(&job.Outcome{JobID: "a", Checkpoint: &job.Token{Topic: "in"}}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestConfigure_Validation(t *testing.T) {
	d := &driver{}
	if err := d.Configure(Config{Topic: "t"}); err == nil {
		t.Fatal("expected error without brokers")
	}
	if err := d.Configure(struct{}{}); err == nil {
		t.Fatal("expected type error")
	}
}
