package transform

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"wordsmith/internal/api"
	"wordsmith/internal/catalog"
)

// Output is one step's result. ID identifies the step on the remote side
// (the history id for the HTTP implementation).
type Output struct {
	Text           string
	ID             string
	ProcessingTime time.Duration
}

type Remote interface {
	Transform(ctx context.Context, text, optionID string) (Output, error)
}

// Func adapts a plain function to Remote.
type Func func(ctx context.Context, text, optionID string) (Output, error)

func (f Func) Transform(ctx context.Context, text, optionID string) (Output, error) {
	return f(ctx, text, optionID)
}

// Transformer is the subset of the API client HTTPRemote needs.
type Transformer interface {
	Transform(ctx context.Context, req api.TransformRequest) (api.TransformResponse, error)
}

// HTTPRemote maps option ids to service transformation types and calls the
// service. OriginalText, when set, is sent with every step so the service
// records the user's input rather than an intermediate text in history.
type HTTPRemote struct {
	client       Transformer
	OriginalText string
	Instructions *string
}

func NewHTTPRemote(c Transformer) *HTTPRemote { return &HTTPRemote{client: c} }

// ForInput returns a copy of r that records original as the history input.
func (r *HTTPRemote) ForInput(original string) *HTTPRemote {
	cp := *r
	cp.OriginalText = original
	return &cp
}

func (r *HTTPRemote) Transform(ctx context.Context, text, optionID string) (Output, error) {
	opt, ok := catalog.Lookup(optionID)
	if !ok {
		return Output{}, fmt.Errorf("unknown transformation type: %s", optionID)
	}
	resp, err := r.client.Transform(ctx, api.TransformRequest{
		Text:                   text,
		TransformationType:     opt.Wire,
		OriginalText:           r.OriginalText,
		AdditionalInstructions: r.Instructions,
	})
	if err != nil {
		return Output{}, err
	}
	return Output{
		Text:           resp.TransformedText,
		ID:             resp.HistoryID,
		ProcessingTime: time.Duration(resp.ProcessingTime * float64(time.Second)),
	}, nil
}

// InProcess rewrites text locally with fn, keyed by the option's wire type.
// IDs are sequential. Safe for concurrent use.
type InProcess struct {
	fn  func(wireType, text string) string
	seq atomic.Int64
}

func NewInProcess(fn func(wireType, text string) string) *InProcess { return &InProcess{fn: fn} }

func (p *InProcess) Transform(_ context.Context, text, optionID string) (Output, error) {
	opt, ok := catalog.Lookup(optionID)
	if !ok {
		return Output{}, fmt.Errorf("unknown transformation type: %s", optionID)
	}
	n := p.seq.Add(1)
	return Output{Text: p.fn(opt.Wire, text), ID: fmt.Sprintf("local-%d", n)}, nil
}
