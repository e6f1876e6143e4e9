package job

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecode_IDFallbacks(t *testing.T) {
	tok := &Token{Topic: "in", Partition: 2, Offset: 7}

	j, err := Decode(&Frame{Value: []byte(`{"id":"a1","text":"hi","options":["formal"]}`), Checkpoint: tok})
	if err != nil || j.ID != "a1" || j.Options[0] != "formal" {
		t.Fatalf("explicit id: %+v %v", j, err)
	}

	j, _ = Decode(&Frame{Key: []byte("k9"), Value: []byte(`{"text":"hi"}`), Checkpoint: tok})
	if j.ID != "k9" {
		t.Fatalf("want key fallback, got %q", j.ID)
	}

	j, _ = Decode(&Frame{Value: []byte(`{"text":"hi"}`), Checkpoint: tok})
	if j.ID != "in[2]@7" {
		t.Fatalf("want checkpoint fallback, got %q", j.ID)
	}
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode(&Frame{Value: []byte("not json")})
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("want ErrMalformed, got %v", err)
	}
}

func TestOutcome_Encode(t *testing.T) {
	step := 1
	o := &Outcome{JobID: "j", FinalText: "Error: x", FailedAtStep: &step, Error: "x", Key: []byte("k")}
	raw, err := o.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var back map[string]any
	_ = json.Unmarshal(raw, &back)
	if back["failed_at_step"].(float64) != 1 || back["job_id"] != "j" {
		t.Fatalf("unexpected encoding %s", raw)
	}
	if _, ok := back["Key"]; ok {
		t.Fatal("key must not be encoded")
	}
	if o.Succeeded() {
		t.Fatal("outcome with a failed step is not a success")
	}
}
