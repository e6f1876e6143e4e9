package kafka

import (
	"context"
	"sync"

	"github.com/IBM/sarama"

	"wordsmith/internal/job"
	"wordsmith/internal/logging"
)

func init() { Register("sarama", func() Adapter { return &SaramaDriver{} }) }

type SaramaDriver struct {
	cfg   Config
	cl    sarama.Client
	group sarama.ConsumerGroup
	bp    *Controller
	cp    *Tracker

	mu      sync.Mutex
	pending map[job.Token]pendingAck

	ackCh chan job.Token
}

func (d *SaramaDriver) Configure(config Config) error {
	d.init(config)

	sc, err := saramaConfig(config)
	if err != nil {
		return err
	}
	if d.cl, err = sarama.NewClient(config.Brokers, sc); err != nil {
		return err
	}
	d.group, err = sarama.NewConsumerGroupFromClient(config.GroupID, d.cl)
	return err
}

func (d *SaramaDriver) init(config Config) {
	d.cfg = config
	d.pending = make(map[job.Token]pendingAck)
	d.bp = NewController(config.BackPressure.Capacity, max(config.BackPressure.Capacity/10, 1), config.BackPressure.CheckInt)
	d.cp = NewTracker(config.BackPressure.Capacity, config.Checkpoint.CommitInt)
	d.ackCh = make(chan job.Token, int(config.BackPressure.Capacity))
}

func saramaConfig(config Config) (*sarama.Config, error) {
	ver, err := sarama.ParseKafkaVersion(config.Version)
	if err != nil {
		return nil, err
	}
	sc := sarama.NewConfig()
	sc.Version = ver
	sc.Consumer.Return.Errors = true
	sc.Net.TLS.Enable = config.TLSEn
	if config.SASLUser != "" {
		sc.Net.SASL.Enable = true
		sc.Net.SASL.User, sc.Net.SASL.Password = config.SASLUser, config.SASLPass
	}
	if config.StartFrom == "oldest" {
		sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	return sc, nil
}

func (d *SaramaDriver) Run(ctx context.Context, emit EmitFunc) error {
	handler := &groupHandler{driver: d, emit: emit}
	go func() {
		for err := range d.group.Errors() {
			logging.L().Warn("kafka-source: consumer error", "err", err)
		}
	}()
	for {
		if err := d.group.Consume(ctx, d.cfg.Topics, handler); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (d *SaramaDriver) Close() error {
	if d.bp != nil {
		d.bp.Close()
	}
	if d.group != nil {
		_ = d.group.Close()
	}
	if d.cl != nil {
		return d.cl.Close()
	}
	return nil
}

// OnAck is bound to the sinks. It never blocks; when the queue is full the
// oldest ack is dropped and its record is redelivered after a rebalance.
func (d *SaramaDriver) OnAck(tok *job.Token) {
	if tok == nil {
		return
	}
	rec := *tok
	select {
	case d.ackCh <- rec:
		return
	default:
	}
	select {
	case <-d.ackCh:
	default:
	}
	select {
	case d.ackCh <- rec:
	default:
		logging.L().Warn("kafka-source: ack queue full; dropping ack", "record", tok.String())
	}
}

// settle runs the commit callback for rec, if one is still pending, and
// returns its backpressure token.
func (d *SaramaDriver) settle(rec job.Token) {
	d.mu.Lock()
	p, ok := d.pending[rec]
	delete(d.pending, rec)
	d.mu.Unlock()
	if !ok {
		return
	}
	p.commit()
	d.bp.Release(1)
	logging.L().Debug("kafka-source: ack settled", "record", rec.String())
}

type pendingAck struct {
	commit  func()
	release func() bool
}

type groupHandler struct {
	driver *SaramaDriver
	emit   EmitFunc
}

func (*groupHandler) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup drops callbacks bound to the ending session; their records are
// redelivered to whoever owns the partition next.
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	d := h.driver
	d.mu.Lock()
	dropped := d.pending
	d.pending = make(map[job.Token]pendingAck)
	d.mu.Unlock()

	for _, p := range dropped {
		p.release()
	}
	if len(dropped) > 0 {
		d.bp.Release(int64(len(dropped)))
		logging.L().Info("kafka-source: rebalance cleared pending acks", "count", len(dropped))
	}
	return nil
}

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	d := h.driver
	done := sess.Context().Done()
	for {
		if !d.bp.TryAcquire(1) {
			select {
			case rec := <-d.ackCh:
				d.settle(rec)
				continue
			case <-done:
				return sess.Context().Err()
			}
		}

		select {
		case <-done:
			d.bp.Release(1)
			return sess.Context().Err()

		case rec := <-d.ackCh:
			d.bp.Release(1)
			d.settle(rec)

		case msg, ok := <-claim.Messages():
			if !ok {
				d.bp.Release(1)
				return nil
			}
			if err := h.handle(sess, msg); err != nil {
				d.bp.Release(1)
				return err
			}
		}
	}
}

func (h *groupHandler) handle(sess sarama.ConsumerGroupSession, msg *sarama.ConsumerMessage) error {
	d := h.driver
	resolve, err := d.cp.Track(sess.Context())
	if err != nil {
		return err
	}

	tok := job.Token{Topic: msg.Topic, Partition: msg.Partition, Offset: msg.Offset}
	commit := func() {
		due := resolve()
		sess.MarkMessage(msg, "")
		if due {
			sess.Commit()
		}
	}

	if d.cfg.CommitMode == CommitE2E {
		// register before emitting so an early ack finds its callback
		d.mu.Lock()
		d.pending[tok] = pendingAck{commit: commit, release: resolve}
		d.mu.Unlock()
	}

	frame := &job.Frame{
		Key:        msg.Key,
		Value:      msg.Value,
		Headers:    toHeaderMap(msg.Headers),
		Ts:         msg.Timestamp,
		Checkpoint: &tok,
	}
	if err := h.emit(frame); err != nil {
		d.mu.Lock()
		delete(d.pending, tok)
		d.mu.Unlock()
		resolve()
		return err
	}

	if d.cfg.CommitMode != CommitE2E {
		commit()
		d.bp.Release(1)
	}
	return nil
}

func toHeaderMap(src []*sarama.RecordHeader) map[string][]byte {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string][]byte, len(src))
	for _, h := range src {
		out[string(h.Key)] = h.Value
	}
	return out
}
