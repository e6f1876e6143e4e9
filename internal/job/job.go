// Package job defines what flows through the batch engine: frames read from a
// source, the rewrite jobs decoded from them, and the outcomes handed to
// sinks.
package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Token identifies a source record so sinks can acknowledge it.
type Token struct {
	Topic     string `json:"topic"`
	Partition int32  `json:"partition"`
	Offset    int64  `json:"offset"`
}

func (t *Token) String() string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%s[%d]@%d", t.Topic, t.Partition, t.Offset)
}

type Frame struct {
	Key        []byte
	Value      []byte
	Headers    map[string][]byte
	Ts         time.Time
	Checkpoint *Token
}

// Job is the JSON payload of a frame. Options may be empty, in which case
// the engine's defaults apply.
type Job struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`
}

var ErrMalformed = errors.New("malformed job")

// Decode parses f.Value. A missing id falls back to the record key, then to
// the checkpoint position.
func Decode(f *Frame) (Job, error) {
	var j Job
	if err := json.Unmarshal(f.Value, &j); err != nil {
		return j, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if strings.TrimSpace(j.ID) == "" {
		if len(f.Key) > 0 {
			j.ID = string(f.Key)
		} else {
			j.ID = f.Checkpoint.String()
		}
	}
	return j, nil
}

// Outcome is the result of one job, as published by sinks. A job rejected
// before any remote call (bad options, blank text) has Error set and no
// FailedAtStep.
type Outcome struct {
	JobID        string    `json:"job_id"`
	Options      []string  `json:"options"`
	FinalText    string    `json:"final_text"`
	LastStepID   string    `json:"last_step_id,omitempty"`
	FailedAtStep *int      `json:"failed_at_step"`
	Error        string    `json:"error,omitempty"`
	FinishedAt   time.Time `json:"finished_at"`

	Key        []byte `json:"-"`
	Checkpoint *Token `json:"-"`
}

func (o *Outcome) Succeeded() bool { return o.Error == "" }

func (o *Outcome) Encode() ([]byte, error) { return json.Marshal(o) }
