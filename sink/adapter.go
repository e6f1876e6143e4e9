package sink

import (
	"fmt"
	"sort"

	"wordsmith/internal/job"
)

// EmitFn is what a sink calls once an outcome (or a batch of outcomes) has
// been durably handled, so the source can commit the record.
type EmitFn func(*job.Token)

// Adapter is the common behaviour every sink exposes.
type Adapter interface {
	Configure(any) error       // driver-specific config struct
	Push(o *job.Outcome) error // consume one outcome
	Close() error              // idempotent
}

// AckAware is optional; sinks that acknowledge records implement it and the
// compiler wires the callback.
type AckAware interface {
	BindAck(EmitFn)
}

type factory = func() Adapter

var reg = map[string]factory{}

func Register(name string, f factory) { reg[name] = f }

func NewAdapter(name string) (Adapter, error) {
	if f, ok := reg[name]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("unknown sink %q (known: %v)", name, Names())
}

func Names() []string {
	out := make([]string, 0, len(reg))
	for n := range reg {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
