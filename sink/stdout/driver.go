package stdout

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"wordsmith/internal/job"
	"wordsmith/sink"
)

type Config struct {
	Format       string    `yaml:"format"`         // text|json
	PrintCounter bool      `yaml:"print_counter"`  // prepend seq#
	BatchSize    int       `yaml:"ack_batch_size"` // 0 = ack every push
	FlushMS      int       `yaml:"ack_flush_ms"`   // 0 = disabled
	Out          io.Writer `yaml:"-"`              // defaults to os.Stdout
}

type driver struct {
	cfg Config
	ack sink.EmitFn
	seq uint64

	writeMu sync.Mutex

	mu      sync.Mutex // guards pending+timer
	pending []*job.Token
	timer   *time.Timer // nil → no timer armed
}

func (d *driver) Configure(raw any) error {
	c, ok := raw.(Config)
	if !ok {
		return fmt.Errorf("stdout-sink: expected Config, got %T", raw)
	}
	switch c.Format {
	case "":
		c.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("stdout-sink: unknown format %q", c.Format)
	}
	if c.Out == nil {
		c.Out = os.Stdout
	}
	d.cfg = c
	return nil
}

func (d *driver) Push(o *job.Outcome) error {
	if err := d.write(o); err != nil {
		return err
	}
	if d.ack == nil || o.Checkpoint == nil {
		return nil
	}

	d.mu.Lock()
	d.pending = append(d.pending, o.Checkpoint)

	/* 1. flush on batch size */
	if d.cfg.BatchSize <= 1 || len(d.pending) >= d.cfg.BatchSize {
		d.flushLocked()
		d.mu.Unlock()
		return nil
	}

	/* 2. arm the one-shot timer if needed */
	if d.cfg.FlushMS > 0 && d.timer == nil {
		d.timer = time.AfterFunc(time.Duration(d.cfg.FlushMS)*time.Millisecond, d.timerFlush)
	}
	d.mu.Unlock()
	return nil
}

func (d *driver) write(o *job.Outcome) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	if d.cfg.PrintCounter {
		if _, err := fmt.Fprintf(d.cfg.Out, "[%06d] ", atomic.AddUint64(&d.seq, 1)); err != nil {
			return err
		}
	}
	if d.cfg.Format == "json" {
		raw, err := o.Encode()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(d.cfg.Out, "%s\n", raw)
		return err
	}
	status := "ok"
	switch {
	case o.FailedAtStep != nil:
		status = fmt.Sprintf("failed@%d", *o.FailedAtStep)
	case !o.Succeeded():
		status = "rejected"
	}
	_, err := fmt.Fprintf(d.cfg.Out, "%s %s %v\n%s\n", o.JobID, status, o.Options, o.FinalText)
	return err
}

func (d *driver) Close() error {
	d.mu.Lock()
	d.flushLocked()
	d.mu.Unlock()
	return nil
}

func (d *driver) BindAck(fn sink.EmitFn) { d.ack = fn }

// called by the background timer goroutine
func (d *driver) timerFlush() {
	d.mu.Lock()
	d.flushLocked()
	d.mu.Unlock()
}

// must be called with d.mu held
func (d *driver) flushLocked() {
	if len(d.pending) == 0 || d.ack == nil {
		d.stopTimerLocked()
		return
	}
	for _, t := range d.pending {
		d.ack(t)
	}
	d.pending = d.pending[:0]
	d.stopTimerLocked()
}

func (d *driver) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func init() {
	sink.Register("stdout", func() sink.Adapter { return &driver{} })
}
