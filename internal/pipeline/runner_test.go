package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"wordsmith/internal/transform"
)

type call struct {
	text, id string
}

type fakeRemote struct {
	calls       []call
	failOn      map[string]error
	inFlight    int32
	maxInFlight int32
}

func (f *fakeRemote) Transform(_ context.Context, text, id string) (transform.Output, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	if n > f.maxInFlight {
		f.maxInFlight = n
	}
	f.calls = append(f.calls, call{text, id})
	if err, ok := f.failOn[id]; ok {
		return transform.Output{}, err
	}
	return transform.Output{Text: text + "|" + id, ID: "h-" + id}, nil
}

func TestRunner_ChainsOutputs(t *testing.T) {
	fr := &fakeRemote{}
	r := NewRunner(fr)

	res, err := r.Run(context.Background(), "hi", []string{"grammar", "formal", "shorten"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Succeeded() || res.Err() != nil {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.FinalText != "hi|grammar|formal|shorten" {
		t.Fatalf("unexpected final text %q", res.FinalText)
	}
	if res.LastStepID != "h-shorten" {
		t.Fatalf("unexpected last step id %q", res.LastStepID)
	}
	want := []call{{"hi", "grammar"}, {"hi|grammar", "formal"}, {"hi|grammar|formal", "shorten"}}
	if len(fr.calls) != len(want) {
		t.Fatalf("want %d calls, got %d", len(want), len(fr.calls))
	}
	for i := range want {
		if fr.calls[i] != want[i] {
			t.Fatalf("call %d: want %+v, got %+v", i, want[i], fr.calls[i])
		}
	}
	if len(res.Steps) != 3 || res.Steps[1].OptionID != "formal" {
		t.Fatalf("unexpected steps %+v", res.Steps)
	}
	if fr.maxInFlight != 1 {
		t.Fatalf("steps must not overlap, saw %d in flight", fr.maxInFlight)
	}
}

func TestRunner_EmptyInputRejectedWithoutCalls(t *testing.T) {
	cases := map[string]struct {
		text string
		ids  []string
	}{
		"empty text":  {"", []string{"formal"}},
		"blank text":  {" \n\t ", []string{"formal"}},
		"no options":  {"text", nil},
		"empty slice": {"text", []string{}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			fr := &fakeRemote{}
			_, err := NewRunner(fr).Run(context.Background(), tc.text, tc.ids)
			if !errors.Is(err, ErrEmptyInput) {
				t.Fatalf("want ErrEmptyInput, got %v", err)
			}
			if len(fr.calls) != 0 {
				t.Fatalf("remote must not be called, got %d calls", len(fr.calls))
			}
		})
	}
}

func TestRunner_StopsAtFirstFailure(t *testing.T) {
	boom := errors.New("model overloaded")
	fr := &fakeRemote{failOn: map[string]error{"formal": boom}}

	res, err := NewRunner(fr).Run(context.Background(), "x", []string{"grammar", "formal", "emoji"})
	if err != nil {
		t.Fatalf("remote failures are reported in the result, got err %v", err)
	}
	if res.Succeeded() {
		t.Fatal("expected failure")
	}
	if res.FailedAtStep != 1 {
		t.Fatalf("want failed at step 1, got %d", res.FailedAtStep)
	}
	if len(fr.calls) != 2 {
		t.Fatalf("no step may run after the failure, got %d calls", len(fr.calls))
	}
	if fr.calls[1].text != "x|grammar" {
		t.Fatalf("failing step must receive the previous output, got %q", fr.calls[1].text)
	}
	if res.ErrorMessage != "model overloaded" {
		t.Fatalf("unexpected message %q", res.ErrorMessage)
	}
	if !strings.HasPrefix(res.FinalText, FailurePrefix) || strings.Contains(res.FinalText, "x|grammar") {
		t.Fatalf("final text must be an error message, not partial output: %q", res.FinalText)
	}

	var rce *RemoteCallError
	if !errors.As(res.Err(), &rce) {
		t.Fatalf("want RemoteCallError, got %T", res.Err())
	}
	if rce.Step != 1 || rce.OptionID != "formal" || !errors.Is(rce, boom) {
		t.Fatalf("unexpected error %+v", rce)
	}
}

func TestRunner_FailureOnFirstStep(t *testing.T) {
	fr := &fakeRemote{failOn: map[string]error{"grammar": errors.New("down")}}
	res, _ := NewRunner(fr).Run(context.Background(), "x", []string{"grammar", "formal"})
	if res.FailedAtStep != 0 || res.LastStepID != "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(fr.calls) != 1 {
		t.Fatalf("want 1 call, got %d", len(fr.calls))
	}
}

func TestRunner_NoCachingAcrossRuns(t *testing.T) {
	fr := &fakeRemote{}
	r := NewRunner(fr)
	for i := 0; i < 2; i++ {
		if _, err := r.Run(context.Background(), "same", []string{"emoji"}); err != nil {
			t.Fatalf("Run: %v", err)
		}
	}
	if len(fr.calls) != 2 {
		t.Fatalf("identical runs must each call the remote, got %d calls", len(fr.calls))
	}
}

type recordingObserver struct {
	events []string
}

func (o *recordingObserver) BeforeStep(i int, id string) { o.events = append(o.events, "before:"+id) }
func (o *recordingObserver) AfterStep(i int, id string, _ transform.Output, err error) {
	if err != nil {
		o.events = append(o.events, "fail:"+id)
		return
	}
	o.events = append(o.events, "after:"+id)
}

func TestRunner_Observer(t *testing.T) {
	fr := &fakeRemote{failOn: map[string]error{"bullet": errors.New("x")}}
	obs := &recordingObserver{}
	r := NewRunner(fr)
	r.SetObserver(obs)

	_, _ = r.Run(context.Background(), "t", []string{"grammar", "bullet", "emoji"})
	want := "before:grammar after:grammar before:bullet fail:bullet"
	if got := strings.Join(obs.events, " "); got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}
