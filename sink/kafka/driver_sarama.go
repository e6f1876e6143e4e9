package kafka

import (
	"fmt"
	"sync"

	"github.com/IBM/sarama"

	"wordsmith/internal/job"
	"wordsmith/internal/logging"
	"wordsmith/sink"
)

type Config struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	Acks    int16    `yaml:"required_acks"` // 0,1,-1
	Version string   `yaml:"version"`
}

type producerFactory func(brokers []string, sc *sarama.Config) (sarama.AsyncProducer, error)

type driver struct {
	cfg         Config
	p           sarama.AsyncProducer
	ack         sink.EmitFn
	newProducer producerFactory

	wg        sync.WaitGroup
	closeOnce sync.Once

	mu       sync.Mutex
	failed   int
	firstErr error
}

func (d *driver) Configure(c any) error {
	cfg, ok := c.(Config)
	if !ok {
		return fmt.Errorf("kafka-sink: want Config, got %T", c)
	}
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return fmt.Errorf("kafka-sink: brokers and topic are required")
	}
	d.cfg = cfg

	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.RequiredAcks(cfg.Acks)
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	if cfg.Version != "" {
		ver, err := sarama.ParseKafkaVersion(cfg.Version)
		if err != nil {
			return err
		}
		sc.Version = ver
	}

	newProducer := d.newProducer
	if newProducer == nil {
		newProducer = sarama.NewAsyncProducer
	}
	p, err := newProducer(cfg.Brokers, sc)
	if err != nil {
		return err
	}
	d.p = p

	d.wg.Add(2)
	go d.drainSuccesses()
	go d.drainErrors()
	return nil
}

// Push enqueues the outcome; the record is acknowledged once the broker
// confirms the write.
func (d *driver) Push(o *job.Outcome) error {
	raw, err := o.Encode()
	if err != nil {
		return err
	}
	key := o.Key
	if len(key) == 0 {
		key = []byte(o.JobID)
	}
	d.p.Input() <- &sarama.ProducerMessage{
		Topic:    d.cfg.Topic,
		Key:      sarama.ByteEncoder(key),
		Value:    sarama.ByteEncoder(raw),
		Metadata: o.Checkpoint,
	}
	return nil
}

func (d *driver) BindAck(fn sink.EmitFn) { d.ack = fn }

func (d *driver) drainSuccesses() {
	defer d.wg.Done()
	for msg := range d.p.Successes() {
		if tok, ok := msg.Metadata.(*job.Token); ok && tok != nil && d.ack != nil {
			d.ack(tok)
		}
	}
}

// Failed writes are logged and left unacknowledged so the source does not
// commit past them.
func (d *driver) drainErrors() {
	defer d.wg.Done()
	for perr := range d.p.Errors() {
		tok, _ := perr.Msg.Metadata.(*job.Token)
		logging.L().Error("kafka-sink: produce failed", "topic", d.cfg.Topic, "record", tok.String(), "err", perr.Err)
		d.mu.Lock()
		if d.failed == 0 {
			d.firstErr = perr.Err
		}
		d.failed++
		d.mu.Unlock()
	}
}

// Close flushes the producer. It reports records the broker rejected, which
// were never acknowledged.
func (d *driver) Close() error {
	var err error
	d.closeOnce.Do(func() {
		if d.p == nil {
			return
		}
		d.p.AsyncClose()
		d.wg.Wait()
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.failed > 0 {
			err = fmt.Errorf("kafka-sink: %d record(s) not produced: %w", d.failed, d.firstErr)
		}
	})
	return err
}

func init() { sink.Register("kafka", func() sink.Adapter { return &driver{} }) }
