// Package pipeline runs an ordered list of transformation options against a
// text, one remote call per option, feeding each output into the next step.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wordsmith/internal/logging"
	"wordsmith/internal/telemetry"
	"wordsmith/internal/transform"
)

// FailurePrefix starts FinalText when a run stops early.
const FailurePrefix = "Error: Transformation failed: "

var ErrEmptyInput = errors.New("empty input: text and at least one transformation are required")

// RemoteCallError is a failed remote step. Steps are zero-based.
type RemoteCallError struct {
	Step     int
	OptionID string
	Err      error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.OptionID, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

type Step struct {
	OptionID string
	ID       string
	Duration time.Duration
}

// Result of one run. FailedAtStep is -1 and ErrorMessage empty when every
// step succeeded. On failure FinalText is a message for the user, never the
// partial output.
type Result struct {
	FinalText    string
	LastStepID   string
	FailedAtStep int
	ErrorMessage string
	Steps        []Step

	err *RemoteCallError
}

func (r Result) Succeeded() bool { return r.FailedAtStep < 0 }

// Err returns the *RemoteCallError of a failed run, or nil.
func (r Result) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

type Observer interface {
	BeforeStep(step int, optionID string)
	AfterStep(step int, optionID string, out transform.Output, err error)
}

type Runner struct {
	remote   transform.Remote
	observer Observer
}

func NewRunner(remote transform.Remote) *Runner { return &Runner{remote: remote} }

func (r *Runner) SetObserver(o Observer) { r.observer = o }

// Run applies ids to text in order. It returns ErrEmptyInput, without any
// remote call, for blank text or no ids. A failing step ends the run; the
// failure is reported in the Result and the returned error is nil.
func (r *Runner) Run(ctx context.Context, text string, ids []string) (Result, error) {
	if strings.TrimSpace(text) == "" || len(ids) == 0 {
		telemetry.RunsTotal.WithLabelValues("rejected").Inc()
		return Result{FailedAtStep: -1}, ErrEmptyInput
	}

	res := Result{FailedAtStep: -1, Steps: make([]Step, 0, len(ids))}
	current := text
	for i, id := range ids {
		if r.observer != nil {
			r.observer.BeforeStep(i, id)
		}
		start := time.Now()
		out, err := r.remote.Transform(ctx, current, id)
		took := time.Since(start)
		telemetry.ObserveStep(id, took, err)
		if r.observer != nil {
			r.observer.AfterStep(i, id, out, err)
		}

		if err != nil {
			logging.L().Warn("transform step failed", "step", i, "option", id, "err", err)
			telemetry.RunsTotal.WithLabelValues("failed").Inc()
			res.FailedAtStep = i
			res.ErrorMessage = err.Error()
			res.FinalText = FailurePrefix + err.Error()
			res.err = &RemoteCallError{Step: i, OptionID: id, Err: err}
			return res, nil
		}

		logging.L().Debug("transform step done", "step", i, "option", id, "id", out.ID, "took", took)
		current = out.Text
		res.LastStepID = out.ID
		res.Steps = append(res.Steps, Step{OptionID: id, ID: out.ID, Duration: took})
	}

	telemetry.RunsTotal.WithLabelValues("ok").Inc()
	res.FinalText = current
	return res, nil
}
