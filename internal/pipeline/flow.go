package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"wordsmith/internal/job"
	"wordsmith/internal/logging"
	"wordsmith/internal/selection"
	"wordsmith/internal/telemetry"
	"wordsmith/internal/transform"
	"wordsmith/sink"
	"wordsmith/source/kafka"
)

// RemoteFor returns the remote used for a job whose input is original.
type RemoteFor func(original string) transform.Remote

// Flow moves jobs from a source through the Runner into every sink. A
// record is acknowledged back to the source once each ack-aware sink has
// acknowledged it.
type Flow struct {
	remoteFor RemoteFor
	defaults  []string
	source    kafka.Adapter
	sinks     []sink.Adapter
	ackers    int
	now       func() time.Time

	mu   sync.Mutex
	subs []func(*job.Token)
	acks map[job.Token]map[int]struct{} // sink indexes that acked
}

func NewFlow(remoteFor RemoteFor, defaults []string) *Flow {
	return &Flow{
		remoteFor: remoteFor,
		defaults:  append([]string(nil), defaults...),
		acks:      map[job.Token]map[int]struct{}{},
		now:       time.Now,
	}
}

func (f *Flow) SetSource(s kafka.Adapter) { f.source = s }

func (f *Flow) AddSink(s sink.Adapter) {
	if aw, ok := s.(sink.AckAware); ok {
		idx := f.ackers
		aw.BindAck(func(tok *job.Token) { f.sinkAck(idx, tok) })
		f.ackers++
	}
	f.sinks = append(f.sinks, s)
}

func (f *Flow) SubscribeAck(fn func(*job.Token)) {
	f.mu.Lock()
	f.subs = append(f.subs, fn)
	f.mu.Unlock()
}

// sinkAck records that ack-aware sink idx acknowledged tok. Repeated acks
// from the same sink, as after a redelivery, count once.
func (f *Flow) sinkAck(idx int, tok *job.Token) {
	if tok == nil {
		return
	}
	f.mu.Lock()
	seen := f.acks[*tok]
	if seen == nil {
		seen = map[int]struct{}{}
		f.acks[*tok] = seen
	}
	seen[idx] = struct{}{}
	if len(seen) < f.ackers {
		f.mu.Unlock()
		return
	}
	delete(f.acks, *tok)
	f.mu.Unlock()
	f.ack(tok)
}

func (f *Flow) ack(tok *job.Token) {
	f.mu.Lock()
	handlers := append([]func(*job.Token){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range handlers {
		fn(tok)
	}
}

// Handle runs one frame end to end. Only sink failures are returned; bad
// jobs become rejected outcomes.
func (f *Flow) Handle(ctx context.Context, fr *job.Frame) error {
	j, err := job.Decode(fr)
	if err != nil {
		logging.L().Warn("flow: skipping malformed job", "record", fr.Checkpoint.String(), "err", err)
		telemetry.JobsTotal.WithLabelValues("malformed").Inc()
		f.ack(fr.Checkpoint)
		return nil
	}

	out := f.run(ctx, j)
	out.Key, out.Checkpoint = fr.Key, fr.Checkpoint

	for _, s := range f.sinks {
		if err := s.Push(out); err != nil {
			telemetry.JobsTotal.WithLabelValues("sink_error").Inc()
			return err
		}
	}
	if f.ackers == 0 {
		f.ack(fr.Checkpoint)
	}
	return nil
}

func (f *Flow) run(ctx context.Context, j job.Job) *job.Outcome {
	ids := j.Options
	if len(ids) == 0 {
		ids = f.defaults
	}
	out := &job.Outcome{JobID: j.ID, Options: ids}

	sel, err := selection.Of(ids...)
	if err == nil {
		out.Options = sel.IDs()
		var res Result
		res, err = NewRunner(f.remoteFor(j.Text)).Run(ctx, j.Text, out.Options)
		if err == nil {
			out.FinalText, out.LastStepID = res.FinalText, res.LastStepID
			if !res.Succeeded() {
				step := res.FailedAtStep
				out.FailedAtStep, out.Error = &step, res.ErrorMessage
			}
		}
	}
	if err != nil {
		out.Error = err.Error()
		out.FinalText = "Error: " + err.Error()
	}
	out.FinishedAt = f.now().UTC()

	switch {
	case out.Succeeded():
		telemetry.JobsTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, selection.ErrInvalidOption), errors.Is(err, ErrEmptyInput):
		telemetry.JobsTotal.WithLabelValues("rejected").Inc()
	default:
		telemetry.JobsTotal.WithLabelValues("failed").Inc()
	}
	logging.L().Debug("flow: job done", "job", j.ID, "options", strings.Join(out.Options, ","), "ok", out.Succeeded())
	return out
}

// Run consumes the source until ctx ends or the source fails.
func (f *Flow) Run(ctx context.Context) error {
	if f.source == nil {
		return errors.New("flow: no source configured")
	}
	return f.source.Run(ctx, func(fr *job.Frame) error { return f.Handle(ctx, fr) })
}

// Close releases the source, then every sink.
func (f *Flow) Close() error {
	var errs []error
	if f.source != nil {
		errs = append(errs, f.source.Close())
	}
	for _, s := range f.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
